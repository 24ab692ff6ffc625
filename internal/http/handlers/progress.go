package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jCool10/LearnSmart-sub001/internal/http/response"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), progress: progress}
}

// PUT /api/lessons/:lessonId/progress
func (h *ProgressHandler) UpdateLessonProgress(c *gin.Context) {
	lessonID, ok := pathUUID(c, h.log, "lessonId")
	if !ok {
		return
	}
	var req services.LessonProgressInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.progress.UpdateLessonProgress(c.Request.Context(), currentUserID(c), lessonID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson progress updated", out)
}

// POST /api/lessons/:lessonId/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	lessonID, ok := pathUUID(c, h.log, "lessonId")
	if !ok {
		return
	}
	var req struct {
		Score *float64 `json:"score"`
	}
	if !bindJSON(c, h.log, &req, true) {
		return
	}
	out, err := h.progress.CompleteLesson(c.Request.Context(), currentUserID(c), lessonID, req.Score)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson completed", out)
}

// DELETE /api/lessons/:lessonId/complete
func (h *ProgressHandler) UncompleteLesson(c *gin.Context) {
	lessonID, ok := pathUUID(c, h.log, "lessonId")
	if !ok {
		return
	}
	out, err := h.progress.UncompleteLesson(c.Request.Context(), currentUserID(c), lessonID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson marked incomplete", out)
}

// PUT /api/roadmaps/:roadmapId/lessons/progress
func (h *ProgressHandler) BulkUpdate(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	var req struct {
		Items []services.BulkLessonProgressItem `json:"items"`
	}
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	rows, enrollment, err := h.progress.BulkUpdateLessonProgress(c.Request.Context(), currentUserID(c), roadmapID, req.Items)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson progress updated", gin.H{
		"lessonProgress": rows,
		"enrollment":     enrollment,
	})
}

// GET /api/roadmaps/:roadmapId/progress
func (h *ProgressHandler) ListRoadmapProgress(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.progress.ListRoadmapLessonProgress(c.Request.Context(), currentUserID(c), roadmapID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson progress", out)
}

// PUT /api/roadmaps/:roadmapId/progress
func (h *ProgressHandler) SetManualProgress(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	var req struct {
		Progress *int `json:"progress"`
	}
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.progress.SetManualProgress(c.Request.Context(), currentUserID(c), roadmapID, req.Progress)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "progress updated", out)
}

// POST /api/roadmaps/:roadmapId/recalculate-progress
func (h *ProgressHandler) Recalculate(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.progress.Recalculate(c.Request.Context(), currentUserID(c), roadmapID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "progress recalculated", out)
}

// DELETE /api/roadmaps/:roadmapId/progress
func (h *ProgressHandler) Reset(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.progress.ResetProgress(c.Request.Context(), currentUserID(c), roadmapID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "progress reset", out)
}
