package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pagination"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error)
	Unenroll(ctx context.Context, userID, roadmapID uuid.UUID) error
	Get(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error)
	ListForUser(ctx context.Context, userID uuid.UUID, completed *bool, page pagination.Params) ([]*types.Enrollment, pagination.Meta, error)
	Touch(ctx context.Context, userID, roadmapID uuid.UUID) error
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	roadmapRepo    repos.RoadmapRepo
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.LessonProgressRepo
	stats          StatsService
	metrics        *observability.Metrics
	now            func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.LessonProgressRepo,
	stats StatsService,
	metrics *observability.Metrics,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		roadmapRepo:    roadmapRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		stats:          stats,
		metrics:        metrics,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (es *enrollmentService) Enroll(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error) {
	var out *types.Enrollment
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		roadmap, err := es.roadmapRepo.GetByID(dbc, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "roadmap")
		}
		if roadmap == nil || !roadmap.IsActive {
			return apierr.NotFound("roadmap")
		}
		existing, err := es.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		if existing != nil {
			return apierr.Conflict("already enrolled in this roadmap")
		}
		now := es.now()
		created, err := es.enrollmentRepo.Create(dbc, []*types.Enrollment{{
			UserID:         userID,
			RoadmapID:      roadmapID,
			EnrolledAt:     now,
			LastAccessedAt: &now,
		}})
		if err != nil {
			if apierr.IsUniqueViolation(err) {
				return apierr.Conflict("already enrolled in this roadmap")
			}
			return apierr.FromDB(err, "enrollment")
		}
		out = created[0]
		out.Roadmap = roadmap
		return nil
	})
	if err != nil {
		return nil, err
	}
	es.metrics.IncLearningEvent("enroll")
	es.log.Info("user enrolled", "user_id", userID, "roadmap_id", roadmapID)
	es.invalidateStats(ctx, roadmapID)
	return out, nil
}

// Unenroll removes the enrollment together with the user's lesson progress
// for the roadmap, so a later enroll starts from zero.
func (es *enrollmentService) Unenroll(ctx context.Context, userID, roadmapID uuid.UUID) error {
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		enrollment, err := es.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		if enrollment == nil {
			return apierr.NotFound("enrollment")
		}
		if _, err := es.progressRepo.FullDeleteByUserAndRoadmap(dbc, userID, roadmapID); err != nil {
			return apierr.FromDB(err, "lesson progress")
		}
		if err := es.enrollmentRepo.FullDeleteByIDs(dbc, []uuid.UUID{enrollment.ID}); err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		return nil
	})
	if err != nil {
		return err
	}
	es.metrics.IncLearningEvent("unenroll")
	es.log.Info("user unenrolled", "user_id", userID, "roadmap_id", roadmapID)
	es.invalidateStats(ctx, roadmapID)
	return nil
}

func (es *enrollmentService) Get(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error) {
	enrollment, err := es.enrollmentRepo.GetByUserAndRoadmap(dbctx.New(ctx), userID, roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "enrollment")
	}
	if enrollment == nil {
		return nil, apierr.NotFound("enrollment")
	}
	return enrollment, nil
}

func (es *enrollmentService) ListForUser(ctx context.Context, userID uuid.UUID, completed *bool, page pagination.Params) ([]*types.Enrollment, pagination.Meta, error) {
	page = pagination.Normalize(page)
	rows, total, err := es.enrollmentRepo.ListByUser(dbctx.New(ctx), userID, repos.EnrollmentFilter{
		Completed: completed,
		Offset:    page.Offset(),
		Limit:     page.Limit,
	})
	if err != nil {
		return nil, pagination.Meta{}, apierr.FromDB(err, "enrollment")
	}
	return rows, pagination.NewMeta(page, total), nil
}

// Touch records a visit. Missing enrollments are ignored.
func (es *enrollmentService) Touch(ctx context.Context, userID, roadmapID uuid.UUID) error {
	dbc := dbctx.New(ctx)
	enrollment, err := es.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
	if err != nil {
		return apierr.FromDB(err, "enrollment")
	}
	if enrollment == nil {
		return nil
	}
	if err := es.enrollmentRepo.UpdateFields(dbc, enrollment.ID, map[string]interface{}{
		"last_accessed_at": es.now(),
	}); err != nil {
		return apierr.FromDB(err, "enrollment")
	}
	return nil
}

func (es *enrollmentService) invalidateStats(ctx context.Context, roadmapID uuid.UUID) {
	if es.stats != nil {
		es.stats.Invalidate(ctx, roadmapID)
	}
}
