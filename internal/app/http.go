package app

import (
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/http"
	httpH "github.com/jCool10/LearnSmart-sub001/internal/http/handlers"
	httpMW "github.com/jCool10/LearnSmart-sub001/internal/http/middleware"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

func wireServer(db *gorm.DB, log *logger.Logger, cfg Config, s Services, metrics *observability.Metrics) *http.Server {
	log.Info("Wiring handlers...")
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		TracingService:    tracing,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, s.Auth),
		HealthHandler:     httpH.NewHealthHandler(db),
		AuthHandler:       httpH.NewAuthHandler(log, s.Auth, s.User),
		CategoryHandler:   httpH.NewCategoryHandler(log, s.Category),
		TagHandler:        httpH.NewTagHandler(log, s.Tag),
		RoadmapHandler:    httpH.NewRoadmapHandler(log, s.Roadmap, s.Stats),
		LessonHandler:     httpH.NewLessonHandler(log, s.Lesson),
		EnrollmentHandler: httpH.NewEnrollmentHandler(log, s.Enrollment),
		ProgressHandler:   httpH.NewProgressHandler(log, s.Progress),
	})
}
