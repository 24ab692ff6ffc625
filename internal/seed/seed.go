// Package seed loads a YAML catalog of categories, roadmaps and lessons.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/slug"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type Catalog struct {
	Categories []Category `yaml:"categories"`
	Roadmaps   []Roadmap  `yaml:"roadmaps"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Roadmap struct {
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	Difficulty    string   `yaml:"difficulty"`
	EstimatedTime int      `yaml:"estimatedTime"`
	Category      string   `yaml:"category"`
	Tags          []string `yaml:"tags"`
	Lessons       []Lesson `yaml:"lessons"`
}

type Lesson struct {
	Title         string `yaml:"title"`
	Content       string `yaml:"content"`
	EstimatedTime int    `yaml:"estimatedTime"`
}

type Result struct {
	Categories int
	Roadmaps   int
	Lessons    int
	Skipped    int
}

func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	return &c, nil
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

type Seeder struct {
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
	roadmapRepo  repos.RoadmapRepo
	categories   services.CategoryService
	roadmaps     services.RoadmapService
	lessons      services.LessonService
}

func NewSeeder(
	log *logger.Logger,
	categoryRepo repos.CategoryRepo,
	roadmapRepo repos.RoadmapRepo,
	categories services.CategoryService,
	roadmaps services.RoadmapService,
	lessons services.LessonService,
) *Seeder {
	return &Seeder{
		log:          log.With("component", "Seeder"),
		categoryRepo: categoryRepo,
		roadmapRepo:  roadmapRepo,
		categories:   categories,
		roadmaps:     roadmaps,
		lessons:      lessons,
	}
}

// Apply creates whatever part of the catalog is missing. Categories are
// matched by slug and roadmaps by their title slug, so re-running a file is
// a no-op.
func (s *Seeder) Apply(ctx context.Context, c *Catalog) (Result, error) {
	var res Result
	dbc := dbctx.New(ctx)
	categoryIDs := map[string]uuid.UUID{}

	for _, cat := range c.Categories {
		key := slug.Make(cat.Name, slug.DefaultMaxLen)
		existing, err := s.categoryRepo.GetBySlugs(dbc, []string{key})
		if err != nil {
			return res, err
		}
		if len(existing) > 0 {
			categoryIDs[key] = existing[0].ID
			res.Skipped++
			continue
		}
		name, desc := cat.Name, cat.Description
		created, err := s.categories.Create(ctx, services.CategoryInput{Name: &name, Description: &desc})
		if err != nil {
			return res, fmt.Errorf("category %q: %w", cat.Name, err)
		}
		categoryIDs[key] = created.ID
		res.Categories++
	}

	for _, rm := range c.Roadmaps {
		key := slug.Make(rm.Title, slug.DefaultMaxLen)
		existing, err := s.roadmapRepo.GetBySlugs(dbc, []string{key})
		if err != nil {
			return res, err
		}
		if len(existing) > 0 {
			res.Skipped++
			continue
		}
		in := services.RoadmapInput{
			Title:         &rm.Title,
			Description:   &rm.Description,
			Difficulty:    &rm.Difficulty,
			EstimatedTime: &rm.EstimatedTime,
			Tags:          &rm.Tags,
		}
		if name := strings.TrimSpace(rm.Category); name != "" {
			id, ok := categoryIDs[slug.Make(name, slug.DefaultMaxLen)]
			if !ok {
				return res, fmt.Errorf("roadmap %q: unknown category %q", rm.Title, name)
			}
			in.CategoryID = &id
		}
		created, err := s.roadmaps.Create(ctx, uuid.Nil, in)
		if err != nil {
			return res, fmt.Errorf("roadmap %q: %w", rm.Title, err)
		}
		res.Roadmaps++
		for i := range rm.Lessons {
			l := rm.Lessons[i]
			if _, err := s.lessons.Create(ctx, created.ID, services.LessonInput{
				Title:         &l.Title,
				Content:       &l.Content,
				EstimatedTime: &l.EstimatedTime,
			}); err != nil {
				return res, fmt.Errorf("roadmap %q lesson %q: %w", rm.Title, l.Title, err)
			}
			res.Lessons++
		}
	}
	s.log.Info("seed applied",
		"categories", res.Categories,
		"roadmaps", res.Roadmaps,
		"lessons", res.Lessons,
		"skipped", res.Skipped,
	)
	return res, nil
}
