package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	httpH "github.com/jCool10/LearnSmart-sub001/internal/http/handlers"
	httpMW "github.com/jCool10/LearnSmart-sub001/internal/http/middleware"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	TracingService string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	AuthHandler       *httpH.AuthHandler
	CategoryHandler   *httpH.CategoryHandler
	TagHandler        *httpH.TagHandler
	RoadmapHandler    *httpH.RoadmapHandler
	LessonHandler     *httpH.LessonHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	ProgressHandler   *httpH.ProgressHandler
}

const (
	healthRoute  = "/healthcheck"
	metricsRoute = "/metrics"
)

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, healthRoute, metricsRoute))
	r.Use(httpMW.Metrics(cfg.Metrics, healthRoute, metricsRoute))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Ops
	if cfg.HealthHandler != nil {
		r.GET(healthRoute, cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET(metricsRoute, gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	am := cfg.AuthMiddleware
	optional := am.OptionalAuth()
	authed := am.RequireAuth()
	requireAdmin := am.RequireRole(types.RoleAdmin)
	admin := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{authed, requireAdmin, h}
	}

	// Auth
	if h := cfg.AuthHandler; h != nil {
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/refresh", h.Refresh)
		api.POST("/auth/logout", authed, h.Logout)
		api.GET("/auth/me", authed, h.Me)
	}

	// Catalog
	if h := cfg.CategoryHandler; h != nil {
		api.GET("/categories", h.List)
		api.POST("/categories", admin(h.Create)...)
		api.PUT("/categories/:id", admin(h.Update)...)
		api.DELETE("/categories/:id", admin(h.Delete)...)
	}
	if h := cfg.TagHandler; h != nil {
		api.GET("/tags", h.List)
		api.POST("/tags", admin(h.Create)...)
		api.DELETE("/tags/:id", admin(h.Delete)...)
	}
	if h := cfg.RoadmapHandler; h != nil {
		api.GET("/roadmaps", h.List)
		api.GET("/roadmaps/:roadmapId", optional, h.Get)
		api.GET("/roadmaps/:roadmapId/lesson-completion-rates", h.CompletionRates)
		api.POST("/roadmaps", admin(h.Create)...)
		api.PUT("/roadmaps/:roadmapId", admin(h.Update)...)
		api.DELETE("/roadmaps/:roadmapId", admin(h.Delete)...)
	}
	if h := cfg.LessonHandler; h != nil {
		api.GET("/roadmaps/:roadmapId/lessons", optional, h.ListByRoadmap)
		api.GET("/lessons/:lessonId", h.Get)
		api.POST("/roadmaps/:roadmapId/lessons", admin(h.Create)...)
		api.PUT("/roadmaps/:roadmapId/lessons/order", admin(h.Reorder)...)
		api.PUT("/lessons/:lessonId", admin(h.Update)...)
		api.PATCH("/lessons/:lessonId/active", admin(h.SetActive)...)
	}

	// Learner
	if h := cfg.EnrollmentHandler; h != nil {
		api.POST("/roadmaps/:roadmapId/enroll", authed, h.Enroll)
		api.DELETE("/roadmaps/:roadmapId/enroll", authed, h.Unenroll)
		api.GET("/roadmaps/:roadmapId/enrollment", authed, h.Get)
		api.GET("/me/enrollments", authed, h.ListMine)
	}
	if h := cfg.ProgressHandler; h != nil {
		api.PUT("/lessons/:lessonId/progress", authed, h.UpdateLessonProgress)
		api.POST("/lessons/:lessonId/complete", authed, h.CompleteLesson)
		api.DELETE("/lessons/:lessonId/complete", authed, h.UncompleteLesson)
		api.GET("/roadmaps/:roadmapId/progress", authed, h.ListRoadmapProgress)
		api.PUT("/roadmaps/:roadmapId/progress", authed, h.SetManualProgress)
		api.DELETE("/roadmaps/:roadmapId/progress", authed, h.Reset)
		api.PUT("/roadmaps/:roadmapId/lessons/progress", authed, h.BulkUpdate)
		api.POST("/roadmaps/:roadmapId/recalculate-progress", authed, h.Recalculate)
	}

	return r
}
