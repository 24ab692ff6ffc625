package app

import (
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Category   services.CategoryService
	Tag        services.TagService
	Roadmap    services.RoadmapService
	Lesson     services.LessonService
	Enrollment services.EnrollmentService
	Progress   services.ProgressService
	Stats      services.StatsService
}

// wireServices builds the service graph. cache may be nil.
func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, cache services.JSONCache, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	stats := services.NewStatsService(db, log, r.Roadmap, r.Lesson, r.Enrollment, r.LessonProgress, cache, cfg.StatsCacheTTL, metrics)
	progress := services.NewProgressService(db, log, r.Roadmap, r.Lesson, r.Enrollment, r.LessonProgress, stats, metrics)
	enrollment := services.NewEnrollmentService(db, log, r.Roadmap, r.Enrollment, r.LessonProgress, stats, metrics)
	return Services{
		Auth:       services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:       services.NewUserService(db, log, r.User, r.UserToken),
		Category:   services.NewCategoryService(db, log, r.Category),
		Tag:        services.NewTagService(db, log, r.Tag),
		Roadmap:    services.NewRoadmapService(db, log, r.Roadmap, r.Category, r.Tag, r.Enrollment, r.LessonProgress, enrollment),
		Lesson:     services.NewLessonService(db, log, r.Roadmap, r.Lesson, progress, stats),
		Enrollment: enrollment,
		Progress:   progress,
		Stats:      stats,
	}
}
