package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jCool10/LearnSmart-sub001/internal/http/response"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type LessonHandler struct {
	log     *logger.Logger
	lessons services.LessonService
}

func NewLessonHandler(log *logger.Logger, lessons services.LessonService) *LessonHandler {
	return &LessonHandler{log: log.With("handler", "LessonHandler"), lessons: lessons}
}

// GET /api/roadmaps/:roadmapId/lessons
// Admins may pass includeInactive=true.
func (h *LessonHandler) ListByRoadmap(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	includeInactive := false
	if v, ok := queryBool(c, "includeInactive"); ok && v != nil {
		includeInactive = *v && ctxutil.GetRequestData(c.Request.Context()).IsAdmin()
	}
	out, err := h.lessons.ListByRoadmap(c.Request.Context(), roadmapID, includeInactive)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lessons", out)
}

// GET /api/lessons/:lessonId
func (h *LessonHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "lessonId")
	if !ok {
		return
	}
	out, err := h.lessons.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson", out)
}

// POST /api/roadmaps/:roadmapId/lessons
func (h *LessonHandler) Create(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	var req services.LessonInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.lessons.Create(c.Request.Context(), roadmapID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, "lesson created", out)
}

// PUT /api/lessons/:lessonId
func (h *LessonHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "lessonId")
	if !ok {
		return
	}
	var req services.LessonInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.lessons.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson updated", out)
}

// PATCH /api/lessons/:lessonId/active
func (h *LessonHandler) SetActive(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "lessonId")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	if req.IsActive == nil {
		response.RespondAPIError(c, h.log, apierr.Validation(apierr.FieldError{Field: "isActive", Message: "is required"}))
		return
	}
	out, err := h.lessons.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson updated", out)
}

// PUT /api/roadmaps/:roadmapId/lessons/order
func (h *LessonHandler) Reorder(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	var req struct {
		LessonIDs []uuid.UUID `json:"lessonIds"`
	}
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.lessons.Reorder(c.Request.Context(), roadmapID, req.LessonIDs)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lessons reordered", out)
}
