package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/testutil"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

const sample = `
categories:
  - name: Backend
    description: Servers
roadmaps:
  - title: Learning Go
    difficulty: beginner
    category: Backend
    tags: [go]
    lessons:
      - title: Basics
        estimatedTime: 30
      - title: Concurrency
  - title: Rust Basics
    difficulty: intermediate
`

func newSeeder(t *testing.T) (*Seeder, services.RoadmapService) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	categoryRepo := repos.NewCategoryRepo(db, log)
	tagRepo := repos.NewTagRepo(db, log)
	roadmapRepo := repos.NewRoadmapRepo(db, log)
	lessonRepo := repos.NewLessonRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	progressRepo := repos.NewLessonProgressRepo(db, log)
	stats := services.NewStatsService(db, log, roadmapRepo, lessonRepo, enrollmentRepo, progressRepo, nil, time.Minute, nil)
	progress := services.NewProgressService(db, log, roadmapRepo, lessonRepo, enrollmentRepo, progressRepo, stats, nil)
	roadmaps := services.NewRoadmapService(db, log, roadmapRepo, categoryRepo, tagRepo, enrollmentRepo, progressRepo, nil)
	return NewSeeder(log, categoryRepo, roadmapRepo,
		services.NewCategoryService(db, log, categoryRepo),
		roadmaps,
		services.NewLessonService(db, log, roadmapRepo, lessonRepo, progress, nil),
	), roadmaps
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	seeder, roadmaps := newSeeder(t)

	res, err := seeder.Apply(ctx, catalog)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Categories != 1 || res.Roadmaps != 2 || res.Lessons != 2 || res.Skipped != 0 {
		t.Fatalf("unexpected first result: %+v", res)
	}

	rows, _, err := roadmaps.List(ctx, services.RoadmapQuery{Tag: "go"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalLessons != 2 || rows[0].Category == nil {
		t.Fatalf("seeded roadmap not as expected: %+v", rows)
	}

	res, err = seeder.Apply(ctx, catalog)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if res.Roadmaps != 0 || res.Skipped != 3 {
		t.Fatalf("second run should skip everything: %+v", res)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse(strings.NewReader("roadmaps:\n  - titel: typo\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestApplyUnknownCategory(t *testing.T) {
	seeder, _ := newSeeder(t)
	catalog := &Catalog{Roadmaps: []Roadmap{{Title: "Orphan Roadmap", Difficulty: "beginner", Category: "Missing"}}}
	if _, err := seeder.Apply(context.Background(), catalog); err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Fatalf("expected unknown category error, got %v", err)
	}
}

func TestShippedCatalogParses(t *testing.T) {
	c, err := LoadFile("../../seed/catalog.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(c.Roadmaps) == 0 || len(c.Categories) == 0 {
		t.Fatalf("empty catalog: %+v", c)
	}
}
