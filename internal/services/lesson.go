package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/validate"
)

type LessonInput struct {
	Title         *string        `json:"title"`
	Content       *string        `json:"content"`
	OrderIndex    *int           `json:"orderIndex"`
	EstimatedTime *int           `json:"estimatedTime"`
	IsActive      *bool          `json:"isActive"`
	Metadata      datatypes.JSON `json:"metadata"`
}

var lessonCreateSchema = validate.Schema{
	"title":         {Required: true, Min: validate.Bound(1), Max: validate.Bound(200)},
	"orderIndex":    {Min: validate.Bound(1)},
	"estimatedTime": {Min: validate.Bound(0)},
}

var lessonUpdateSchema = validate.Schema{
	"title":         {Min: validate.Bound(1), Max: validate.Bound(200)},
	"orderIndex":    {Min: validate.Bound(1)},
	"estimatedTime": {Min: validate.Bound(0)},
}

func (in LessonInput) fields() validate.Fields {
	return validate.Fields{
		"title":         trimmed(in.Title),
		"orderIndex":    in.OrderIndex,
		"estimatedTime": in.EstimatedTime,
	}
}

type LessonService interface {
	Create(ctx context.Context, roadmapID uuid.UUID, in LessonInput) (*types.Lesson, error)
	Get(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
	ListByRoadmap(ctx context.Context, roadmapID uuid.UUID, includeInactive bool) ([]*types.Lesson, error)
	Update(ctx context.Context, lessonID uuid.UUID, in LessonInput) (*types.Lesson, error)
	SetActive(ctx context.Context, lessonID uuid.UUID, active bool) (*types.Lesson, error)
	Reorder(ctx context.Context, roadmapID uuid.UUID, orderedIDs []uuid.UUID) ([]*types.Lesson, error)
}

type lessonService struct {
	db          *gorm.DB
	log         *logger.Logger
	roadmapRepo repos.RoadmapRepo
	lessonRepo  repos.LessonRepo
	progress    ProgressService
	stats       StatsService
}

func NewLessonService(
	db *gorm.DB,
	log *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	lessonRepo repos.LessonRepo,
	progress ProgressService,
	stats StatsService,
) LessonService {
	return &lessonService{
		db:          db,
		log:         log.With("service", "LessonService"),
		roadmapRepo: roadmapRepo,
		lessonRepo:  lessonRepo,
		progress:    progress,
		stats:       stats,
	}
}

func (ls *lessonService) requireRoadmap(dbc dbctx.Context, roadmapID uuid.UUID) error {
	roadmap, err := ls.roadmapRepo.GetByID(dbc, roadmapID)
	if err != nil {
		return apierr.FromDB(err, "roadmap")
	}
	if roadmap == nil {
		return apierr.NotFound("roadmap")
	}
	return nil
}

func (ls *lessonService) Create(ctx context.Context, roadmapID uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if err := validate.Check(lessonCreateSchema, in.fields()); err != nil {
		return nil, err
	}
	lesson := &types.Lesson{
		RoadmapID: roadmapID,
		Title:     strings.TrimSpace(*in.Title),
		IsActive:  true,
		Metadata:  in.Metadata,
	}
	if in.Content != nil {
		lesson.Content = *in.Content
	}
	if in.EstimatedTime != nil {
		lesson.EstimatedTime = *in.EstimatedTime
	}
	if in.IsActive != nil {
		lesson.IsActive = *in.IsActive
	}

	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := ls.requireRoadmap(dbc, roadmapID); err != nil {
			return err
		}
		if in.OrderIndex != nil {
			lesson.OrderIndex = *in.OrderIndex
		} else {
			max, err := ls.lessonRepo.MaxOrderIndex(dbc, roadmapID)
			if err != nil {
				return apierr.FromDB(err, "lesson")
			}
			lesson.OrderIndex = max + 1
		}
		if _, err := ls.lessonRepo.Create(dbc, []*types.Lesson{lesson}); err != nil {
			if apierr.IsUniqueViolation(err) {
				return apierr.Conflict("a lesson with this orderIndex already exists in the roadmap")
			}
			return apierr.FromDB(err, "lesson")
		}
		if _, err := ls.roadmapRepo.RefreshTotalLessons(dbc, roadmapID); err != nil {
			return apierr.FromDB(err, "roadmap")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ls.log.Info("lesson created", "lesson_id", lesson.ID, "roadmap_id", roadmapID, "order_index", lesson.OrderIndex)
	ls.invalidateRates(ctx, roadmapID)
	if lesson.IsActive {
		ls.recalculateRoadmap(ctx, roadmapID)
	}
	return lesson, nil
}

func (ls *lessonService) Get(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	lesson, err := ls.lessonRepo.GetByID(dbctx.New(ctx), lessonID)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson")
	}
	if lesson == nil {
		return nil, apierr.NotFound("lesson")
	}
	return lesson, nil
}

func (ls *lessonService) ListByRoadmap(ctx context.Context, roadmapID uuid.UUID, includeInactive bool) ([]*types.Lesson, error) {
	dbc := dbctx.New(ctx)
	if err := ls.requireRoadmap(dbc, roadmapID); err != nil {
		return nil, err
	}
	lessons, err := ls.lessonRepo.GetByRoadmapID(dbc, roadmapID, includeInactive)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson")
	}
	return lessons, nil
}

func (ls *lessonService) Update(ctx context.Context, lessonID uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if err := validate.Check(lessonUpdateSchema, in.fields()); err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		if _, err := ls.SetActive(ctx, lessonID, *in.IsActive); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.OrderIndex != nil {
		updates["order_index"] = *in.OrderIndex
	}
	if in.EstimatedTime != nil {
		updates["estimated_time"] = *in.EstimatedTime
	}
	if in.Metadata != nil {
		updates["metadata"] = in.Metadata
	}
	if len(updates) > 0 {
		if err := ls.lessonRepo.UpdateFields(dbctx.New(ctx), lessonID, updates); err != nil {
			if apierr.IsUniqueViolation(err) {
				return nil, apierr.Conflict("a lesson with this orderIndex already exists in the roadmap")
			}
			return nil, apierr.FromDB(err, "lesson")
		}
	}
	lesson, err := ls.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		ls.invalidateRates(ctx, lesson.RoadmapID)
	}
	return lesson, nil
}

// SetActive toggles the lesson, refreshes the roadmap's lesson count and then
// recalculates every enrollment so completion follows the new denominator.
func (ls *lessonService) SetActive(ctx context.Context, lessonID uuid.UUID, active bool) (*types.Lesson, error) {
	var lesson *types.Lesson
	changed := false
	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		l, err := ls.lessonRepo.GetByID(dbc, lessonID)
		if err != nil {
			return apierr.FromDB(err, "lesson")
		}
		if l == nil {
			return apierr.NotFound("lesson")
		}
		lesson = l
		if l.IsActive == active {
			return nil
		}
		if err := ls.lessonRepo.UpdateFields(dbc, lessonID, map[string]interface{}{"is_active": active}); err != nil {
			return apierr.FromDB(err, "lesson")
		}
		if _, err := ls.roadmapRepo.RefreshTotalLessons(dbc, l.RoadmapID); err != nil {
			return apierr.FromDB(err, "roadmap")
		}
		lesson.IsActive = active
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		ls.log.Info("lesson activation changed", "lesson_id", lessonID, "is_active", active)
		ls.invalidateRates(ctx, lesson.RoadmapID)
		ls.recalculateRoadmap(ctx, lesson.RoadmapID)
	}
	return lesson, nil
}

// Reorder assigns orderIndex 1..n in the given order. orderedIDs must list
// every lesson of the roadmap exactly once.
func (ls *lessonService) Reorder(ctx context.Context, roadmapID uuid.UUID, orderedIDs []uuid.UUID) ([]*types.Lesson, error) {
	if len(orderedIDs) == 0 {
		return nil, apierr.Validation(apierr.FieldError{Field: "lessonIds", Message: "is required"})
	}
	var out []*types.Lesson
	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := ls.requireRoadmap(dbc, roadmapID); err != nil {
			return err
		}
		lessons, err := ls.lessonRepo.GetByRoadmapID(dbc, roadmapID, true)
		if err != nil {
			return apierr.FromDB(err, "lesson")
		}
		known := make(map[uuid.UUID]struct{}, len(lessons))
		for _, l := range lessons {
			known[l.ID] = struct{}{}
		}
		seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
		for _, id := range orderedIDs {
			if _, ok := known[id]; !ok {
				return apierr.Validation(apierr.FieldError{Field: "lessonIds", Message: "contains a lesson outside this roadmap"})
			}
			if _, dup := seen[id]; dup {
				return apierr.Validation(apierr.FieldError{Field: "lessonIds", Message: "contains duplicates"})
			}
			seen[id] = struct{}{}
		}
		if len(seen) != len(known) {
			return apierr.Validation(apierr.FieldError{Field: "lessonIds", Message: "must list every lesson of the roadmap"})
		}
		if err := ls.lessonRepo.SetOrder(dbc, roadmapID, orderedIDs); err != nil {
			return apierr.FromDB(err, "lesson")
		}
		out, err = ls.lessonRepo.GetByRoadmapID(dbc, roadmapID, true)
		return apierr.FromDB(err, "lesson")
	})
	if err != nil {
		return nil, err
	}
	ls.invalidateRates(ctx, roadmapID)
	return out, nil
}

// invalidateRates drops the cached completion rates, which embed lesson
// titles and order.
func (ls *lessonService) invalidateRates(ctx context.Context, roadmapID uuid.UUID) {
	if ls.stats != nil {
		ls.stats.Invalidate(ctx, roadmapID)
	}
}

func (ls *lessonService) recalculateRoadmap(ctx context.Context, roadmapID uuid.UUID) {
	if ls.progress == nil {
		return
	}
	if _, err := ls.progress.RecalculateAll(ctx, roadmapID); err != nil {
		ls.log.Error("roadmap recalculation after lesson change failed", "roadmap_id", roadmapID, "error", err)
	}
}
