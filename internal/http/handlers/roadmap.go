package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jCool10/LearnSmart-sub001/internal/http/response"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type RoadmapHandler struct {
	log      *logger.Logger
	roadmaps services.RoadmapService
	stats    services.StatsService
}

func NewRoadmapHandler(log *logger.Logger, roadmaps services.RoadmapService, stats services.StatsService) *RoadmapHandler {
	return &RoadmapHandler{
		log:      log.With("handler", "RoadmapHandler"),
		roadmaps: roadmaps,
		stats:    stats,
	}
}

// GET /api/roadmaps
func (h *RoadmapHandler) List(c *gin.Context) {
	q := services.RoadmapQuery{
		Difficulty: strings.TrimSpace(c.Query("difficulty")),
		Tag:        c.Query("tag"),
		Search:     c.Query("search"),
		SortBy:     strings.TrimSpace(c.Query("sortBy")),
		SortOrder:  strings.TrimSpace(c.Query("sortOrder")),
		Page:       pageParams(c),
	}
	if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, h.log, apierr.Validation(apierr.FieldError{Field: "categoryId", Message: "must be a valid UUID"}))
			return
		}
		q.CategoryID = &id
	}
	active, ok := queryBool(c, "isActive")
	if !ok {
		response.RespondAPIError(c, h.log, apierr.Validation(apierr.FieldError{Field: "isActive", Message: "must be a boolean"}))
		return
	}
	if active == nil {
		t := true
		active = &t
	}
	q.IsActive = active

	rows, meta, err := h.roadmaps.List(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondPaged(c, "roadmaps", rows, meta)
}

// GET /api/roadmaps/:roadmapId
func (h *RoadmapHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.roadmaps.GetDetail(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "roadmap", out)
}

// POST /api/roadmaps
func (h *RoadmapHandler) Create(c *gin.Context) {
	var req services.RoadmapInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.roadmaps.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, "roadmap created", out)
}

// PUT /api/roadmaps/:roadmapId
func (h *RoadmapHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	var req services.RoadmapInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.roadmaps.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "roadmap updated", out)
}

// DELETE /api/roadmaps/:roadmapId deactivates; rows are kept for enrolled users.
func (h *RoadmapHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	if err := h.roadmaps.Deactivate(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "roadmap deactivated", nil)
}

// GET /api/roadmaps/:roadmapId/lesson-completion-rates
func (h *RoadmapHandler) CompletionRates(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.stats.LessonCompletionRates(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "lesson completion rates", out)
}
