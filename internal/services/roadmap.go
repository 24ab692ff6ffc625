package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pagination"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/slug"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/validate"
)

type RoadmapInput struct {
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	Difficulty    *string        `json:"difficulty"`
	EstimatedTime *int           `json:"estimatedTime"`
	CategoryID    *uuid.UUID     `json:"categoryId"`
	Tags          *[]string      `json:"tags"`
	IsActive      *bool          `json:"isActive"`
	Metadata      datatypes.JSON `json:"metadata"`
}

type RoadmapQuery struct {
	Difficulty string
	CategoryID *uuid.UUID
	Tag        string
	Search     string
	IsActive   *bool
	SortBy     string
	SortOrder  string
	Page       pagination.Params
}

// RoadmapDetail is a roadmap with its active lessons plus, for an
// authenticated caller, their enrollment and lesson progress.
type RoadmapDetail struct {
	*types.Roadmap
	Enrollment     *types.Enrollment       `json:"enrollment,omitempty"`
	LessonProgress []*types.LessonProgress `json:"lessonProgress,omitempty"`
}

var roadmapCreateSchema = validate.Schema{
	"title":         {Required: true, Min: validate.Bound(3), Max: validate.Bound(200)},
	"description":   {Max: validate.Bound(5000)},
	"difficulty":    {Required: true, Enum: types.Difficulties},
	"estimatedTime": {Min: validate.Bound(0)},
	"tags":          {Max: validate.Bound(20)},
}

var roadmapUpdateSchema = validate.Schema{
	"title":         {Min: validate.Bound(3), Max: validate.Bound(200)},
	"description":   {Max: validate.Bound(5000)},
	"difficulty":    {Enum: types.Difficulties},
	"estimatedTime": {Min: validate.Bound(0)},
	"tags":          {Max: validate.Bound(20)},
}

var roadmapQuerySchema = validate.Schema{
	"difficulty": {Enum: types.Difficulties},
	"sortBy":     {Enum: []string{"createdAt", "title", "difficulty", "totalLessons"}},
	"sortOrder":  {Enum: []string{"asc", "desc"}},
}

func (in RoadmapInput) fields() validate.Fields {
	f := validate.Fields{
		"title":         trimmed(in.Title),
		"description":   in.Description,
		"difficulty":    in.Difficulty,
		"estimatedTime": in.EstimatedTime,
	}
	if in.Tags != nil {
		f["tags"] = *in.Tags
	}
	return f
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

type RoadmapService interface {
	Create(ctx context.Context, createdBy uuid.UUID, in RoadmapInput) (*types.Roadmap, error)
	Get(ctx context.Context, roadmapID uuid.UUID) (*types.Roadmap, error)
	GetDetail(ctx context.Context, roadmapID uuid.UUID, viewerID *uuid.UUID) (*RoadmapDetail, error)
	List(ctx context.Context, q RoadmapQuery) ([]*types.Roadmap, pagination.Meta, error)
	Update(ctx context.Context, roadmapID uuid.UUID, in RoadmapInput) (*types.Roadmap, error)
	Deactivate(ctx context.Context, roadmapID uuid.UUID) error
	RefreshTotalLessons(ctx context.Context, roadmapID uuid.UUID) (int, error)
}

type roadmapService struct {
	db             *gorm.DB
	log            *logger.Logger
	roadmapRepo    repos.RoadmapRepo
	categoryRepo   repos.CategoryRepo
	tagRepo        repos.TagRepo
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.LessonProgressRepo
	enrollments    EnrollmentService
}

func NewRoadmapService(
	db *gorm.DB,
	log *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	categoryRepo repos.CategoryRepo,
	tagRepo repos.TagRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.LessonProgressRepo,
	enrollments EnrollmentService,
) RoadmapService {
	return &roadmapService{
		db:             db,
		log:            log.With("service", "RoadmapService"),
		roadmapRepo:    roadmapRepo,
		categoryRepo:   categoryRepo,
		tagRepo:        tagRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		enrollments:    enrollments,
	}
}

func (rs *roadmapService) Create(ctx context.Context, createdBy uuid.UUID, in RoadmapInput) (*types.Roadmap, error) {
	if err := validate.Check(roadmapCreateSchema, in.fields()); err != nil {
		return nil, err
	}
	var out *types.Roadmap
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := rs.checkCategory(dbc, in.CategoryID); err != nil {
			return err
		}
		title := strings.TrimSpace(*in.Title)
		s, err := slug.EnsureUnique(ctx, tx, "roadmap", "slug", slug.Make(title, slug.DefaultMaxLen), slug.DefaultMaxLen)
		if err != nil {
			return apierr.Internal(err)
		}
		roadmap := &types.Roadmap{
			Title:      title,
			Slug:       s,
			Difficulty: *in.Difficulty,
			IsActive:   true,
			CategoryID: in.CategoryID,
			Metadata:   in.Metadata,
		}
		if in.Description != nil {
			roadmap.Description = *in.Description
		}
		if in.EstimatedTime != nil {
			roadmap.EstimatedTime = *in.EstimatedTime
		}
		if in.IsActive != nil {
			roadmap.IsActive = *in.IsActive
		}
		if createdBy != uuid.Nil {
			cb := createdBy
			roadmap.CreatedBy = &cb
		}
		if _, err := rs.roadmapRepo.Create(dbc, []*types.Roadmap{roadmap}); err != nil {
			return apierr.FromDB(err, "roadmap")
		}
		if in.Tags != nil {
			tags, err := rs.resolveTags(dbc, *in.Tags)
			if err != nil {
				return err
			}
			if err := rs.roadmapRepo.ReplaceTags(dbc, roadmap, tags); err != nil {
				return apierr.FromDB(err, "roadmap tags")
			}
		}
		out, err = rs.roadmapRepo.GetDetail(dbc, roadmap.ID)
		return apierr.FromDB(err, "roadmap")
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("roadmap created", "roadmap_id", out.ID, "slug", out.Slug)
	return out, nil
}

func (rs *roadmapService) checkCategory(dbc dbctx.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	c, err := rs.categoryRepo.GetByID(dbc, *categoryID)
	if err != nil {
		return apierr.FromDB(err, "category")
	}
	if c == nil {
		return apierr.NotFound("category")
	}
	return nil
}

// resolveTags maps tag names to rows, creating the missing ones.
func (rs *roadmapService) resolveTags(dbc dbctx.Context, names []string) ([]*types.Tag, error) {
	bySlug := map[string]string{}
	var slugs []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s := slug.Make(name, slug.DefaultMaxLen)
		if _, ok := bySlug[s]; ok {
			continue
		}
		bySlug[s] = name
		slugs = append(slugs, s)
	}
	if len(slugs) == 0 {
		return nil, nil
	}
	existing, err := rs.tagRepo.GetBySlugs(dbc, slugs)
	if err != nil {
		return nil, apierr.FromDB(err, "tag")
	}
	found := map[string]*types.Tag{}
	for _, t := range existing {
		found[t.Slug] = t
	}
	var missing []*types.Tag
	for _, s := range slugs {
		if _, ok := found[s]; !ok {
			missing = append(missing, &types.Tag{Name: bySlug[s], Slug: s})
		}
	}
	if len(missing) > 0 {
		if _, err := rs.tagRepo.Create(dbc, missing); err != nil {
			return nil, apierr.FromDB(err, "tag")
		}
		for _, t := range missing {
			found[t.Slug] = t
		}
	}
	out := make([]*types.Tag, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, found[s])
	}
	return out, nil
}

func (rs *roadmapService) Get(ctx context.Context, roadmapID uuid.UUID) (*types.Roadmap, error) {
	roadmap, err := rs.roadmapRepo.GetDetail(dbctx.New(ctx), roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "roadmap")
	}
	if roadmap == nil {
		return nil, apierr.NotFound("roadmap")
	}
	return roadmap, nil
}

// GetDetail loads the roadmap and, when viewerID is set, the viewer's
// enrollment and lesson progress concurrently.
func (rs *roadmapService) GetDetail(ctx context.Context, roadmapID uuid.UUID, viewerID *uuid.UUID) (*RoadmapDetail, error) {
	var (
		roadmap    *types.Roadmap
		enrollment *types.Enrollment
		progress   []*types.LessonProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := rs.roadmapRepo.GetDetail(dbctx.New(gctx), roadmapID)
		if err != nil {
			return apierr.FromDB(err, "roadmap")
		}
		roadmap = r
		return nil
	})
	if viewerID != nil {
		uid := *viewerID
		g.Go(func() error {
			e, err := rs.enrollmentRepo.GetByUserAndRoadmap(dbctx.New(gctx), uid, roadmapID)
			if err != nil {
				return apierr.FromDB(err, "enrollment")
			}
			enrollment = e
			return nil
		})
		g.Go(func() error {
			rows, err := rs.progressRepo.GetByUserAndRoadmap(dbctx.New(gctx), uid, roadmapID)
			if err != nil {
				return apierr.FromDB(err, "lesson progress")
			}
			progress = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if roadmap == nil {
		return nil, apierr.NotFound("roadmap")
	}

	out := &RoadmapDetail{Roadmap: roadmap}
	if enrollment != nil {
		out.Enrollment = enrollment
		out.LessonProgress = progress
		if rs.enrollments != nil {
			if err := rs.enrollments.Touch(ctx, enrollment.UserID, roadmapID); err != nil {
				rs.log.Warn("enrollment touch failed", "roadmap_id", roadmapID, "error", err)
			}
		}
	}
	return out, nil
}

func (rs *roadmapService) List(ctx context.Context, q RoadmapQuery) ([]*types.Roadmap, pagination.Meta, error) {
	fields := validate.Fields{}
	if q.Difficulty != "" {
		fields["difficulty"] = q.Difficulty
	}
	if q.SortBy != "" {
		fields["sortBy"] = q.SortBy
	}
	if q.SortOrder != "" {
		fields["sortOrder"] = strings.ToLower(q.SortOrder)
	}
	if err := validate.Check(roadmapQuerySchema, fields); err != nil {
		return nil, pagination.Meta{}, err
	}
	page := pagination.Normalize(q.Page)
	rows, total, err := rs.roadmapRepo.List(dbctx.New(ctx), repos.RoadmapFilter{
		Difficulty: q.Difficulty,
		CategoryID: q.CategoryID,
		TagSlug:    strings.TrimSpace(q.Tag),
		Search:     strings.TrimSpace(q.Search),
		IsActive:   q.IsActive,
		SortBy:     q.SortBy,
		SortDesc:   q.SortOrder == "" || strings.EqualFold(q.SortOrder, "desc"),
		Offset:     page.Offset(),
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, pagination.Meta{}, apierr.FromDB(err, "roadmap")
	}
	return rows, pagination.NewMeta(page, total), nil
}

func (rs *roadmapService) Update(ctx context.Context, roadmapID uuid.UUID, in RoadmapInput) (*types.Roadmap, error) {
	if err := validate.Check(roadmapUpdateSchema, in.fields()); err != nil {
		return nil, err
	}
	var out *types.Roadmap
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		roadmap, err := rs.roadmapRepo.GetByID(dbc, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "roadmap")
		}
		if roadmap == nil {
			return apierr.NotFound("roadmap")
		}
		if err := rs.checkCategory(dbc, in.CategoryID); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title != roadmap.Title {
				updates["title"] = title
				if base := slug.Make(title, slug.DefaultMaxLen); base != roadmap.Slug {
					s, err := slug.EnsureUnique(ctx, tx, "roadmap", "slug", base, slug.DefaultMaxLen)
					if err != nil {
						return apierr.Internal(err)
					}
					updates["slug"] = s
				}
			}
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Difficulty != nil {
			updates["difficulty"] = *in.Difficulty
		}
		if in.EstimatedTime != nil {
			updates["estimated_time"] = *in.EstimatedTime
		}
		if in.CategoryID != nil {
			updates["category_id"] = *in.CategoryID
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		if in.Metadata != nil {
			updates["metadata"] = in.Metadata
		}
		if len(updates) > 0 {
			if err := rs.roadmapRepo.UpdateFields(dbc, roadmapID, updates); err != nil {
				return apierr.FromDB(err, "roadmap")
			}
		}
		if in.Tags != nil {
			tags, err := rs.resolveTags(dbc, *in.Tags)
			if err != nil {
				return err
			}
			if err := rs.roadmapRepo.ReplaceTags(dbc, roadmap, tags); err != nil {
				return apierr.FromDB(err, "roadmap tags")
			}
		}
		out, err = rs.roadmapRepo.GetDetail(dbc, roadmapID)
		return apierr.FromDB(err, "roadmap")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate hides the roadmap from listings. Enrollments and progress are kept.
func (rs *roadmapService) Deactivate(ctx context.Context, roadmapID uuid.UUID) error {
	if err := rs.roadmapRepo.UpdateFields(dbctx.New(ctx), roadmapID, map[string]interface{}{"is_active": false}); err != nil {
		return apierr.FromDB(err, "roadmap")
	}
	rs.log.Info("roadmap deactivated", "roadmap_id", roadmapID)
	return nil
}

func (rs *roadmapService) RefreshTotalLessons(ctx context.Context, roadmapID uuid.UUID) (int, error) {
	n, err := rs.roadmapRepo.RefreshTotalLessons(dbctx.New(ctx), roadmapID)
	if err != nil {
		return 0, apierr.FromDB(err, "roadmap")
	}
	return n, nil
}
