package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

const completionRatesCache = "completion_rates"

// JSONCache is the subset of the redis cache the services use.
type JSONCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type LessonCompletionRate struct {
	LessonID       uuid.UUID `json:"lessonId"`
	Title          string    `json:"title"`
	OrderIndex     int       `json:"orderIndex"`
	CompletedCount int64     `json:"completedCount"`
	EnrolledCount  int64     `json:"enrolledCount"`
	CompletionRate int       `json:"completionRate"`
}

type StatsService interface {
	LessonCompletionRates(ctx context.Context, roadmapID uuid.UUID) ([]LessonCompletionRate, error)
	Invalidate(ctx context.Context, roadmapID uuid.UUID)
}

type statsService struct {
	db             *gorm.DB
	log            *logger.Logger
	roadmapRepo    repos.RoadmapRepo
	lessonRepo     repos.LessonRepo
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.LessonProgressRepo
	cache          JSONCache
	ttl            time.Duration
	metrics        *observability.Metrics
}

// NewStatsService builds the stats service. cache may be nil, in which case
// every call reads the database.
func NewStatsService(
	db *gorm.DB,
	log *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	lessonRepo repos.LessonRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.LessonProgressRepo,
	cache JSONCache,
	ttl time.Duration,
	metrics *observability.Metrics,
) StatsService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &statsService{
		db:             db,
		log:            log.With("service", "StatsService"),
		roadmapRepo:    roadmapRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		cache:          cache,
		ttl:            ttl,
		metrics:        metrics,
	}
}

func completionRatesKey(roadmapID uuid.UUID) string {
	return "stats:completion-rates:" + roadmapID.String()
}

func (ss *statsService) LessonCompletionRates(ctx context.Context, roadmapID uuid.UUID) ([]LessonCompletionRate, error) {
	key := completionRatesKey(roadmapID)
	if ss.cache != nil {
		var cached []LessonCompletionRate
		hit, err := ss.cache.Get(ctx, key, &cached)
		if err != nil {
			ss.log.Warn("completion rates cache read failed", "roadmap_id", roadmapID, "error", err)
		}
		ss.metrics.ObserveCache(completionRatesCache, hit)
		if hit {
			return cached, nil
		}
	}

	out, err := ss.computeCompletionRates(dbctx.New(ctx), roadmapID)
	if err != nil {
		return nil, err
	}

	if ss.cache != nil {
		if err := ss.cache.Set(ctx, key, out, ss.ttl); err != nil {
			ss.log.Warn("completion rates cache write failed", "roadmap_id", roadmapID, "error", err)
		}
	}
	return out, nil
}

func (ss *statsService) computeCompletionRates(dbc dbctx.Context, roadmapID uuid.UUID) ([]LessonCompletionRate, error) {
	roadmap, err := ss.roadmapRepo.GetByID(dbc, roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "roadmap")
	}
	if roadmap == nil {
		return nil, apierr.NotFound("roadmap")
	}
	lessons, err := ss.lessonRepo.GetByRoadmapID(dbc, roadmapID, false)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson")
	}
	enrolled, err := ss.enrollmentRepo.CountByRoadmapID(dbc, roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "enrollment")
	}
	ids := make([]uuid.UUID, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	counts, err := ss.progressRepo.CompletedCountsForRoadmap(dbc, roadmapID, ids)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson progress")
	}

	out := make([]LessonCompletionRate, 0, len(lessons))
	for _, l := range lessons {
		completed := counts[l.ID]
		out = append(out, LessonCompletionRate{
			LessonID:       l.ID,
			Title:          l.Title,
			OrderIndex:     l.OrderIndex,
			CompletedCount: completed,
			EnrolledCount:  enrolled,
			CompletionRate: percent(completed, enrolled),
		})
	}
	return out, nil
}

func (ss *statsService) Invalidate(ctx context.Context, roadmapID uuid.UUID) {
	if ss.cache == nil {
		return
	}
	if err := ss.cache.Delete(ctx, completionRatesKey(roadmapID)); err != nil {
		ss.log.Warn("completion rates cache invalidate failed", "roadmap_id", roadmapID, "error", err)
	}
}
