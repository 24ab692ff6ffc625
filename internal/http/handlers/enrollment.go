package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jCool10/LearnSmart-sub001/internal/http/response"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type EnrollmentHandler struct {
	log         *logger.Logger
	enrollments services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollments services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{log: log.With("handler", "EnrollmentHandler"), enrollments: enrollments}
}

// POST /api/roadmaps/:roadmapId/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.enrollments.Enroll(c.Request.Context(), currentUserID(c), roadmapID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, "enrolled", out)
}

// DELETE /api/roadmaps/:roadmapId/enroll
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), currentUserID(c), roadmapID); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "unenrolled", nil)
}

// GET /api/roadmaps/:roadmapId/enrollment
func (h *EnrollmentHandler) Get(c *gin.Context) {
	roadmapID, ok := pathUUID(c, h.log, "roadmapId")
	if !ok {
		return
	}
	out, err := h.enrollments.Get(c.Request.Context(), currentUserID(c), roadmapID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "enrollment", out)
}

// GET /api/me/enrollments?completed=&page=&limit=
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	completed, ok := queryBool(c, "completed")
	if !ok {
		response.RespondAPIError(c, h.log, apierr.Validation(apierr.FieldError{Field: "completed", Message: "must be a boolean"}))
		return
	}
	rows, meta, err := h.enrollments.ListForUser(c.Request.Context(), currentUserID(c), completed, pageParams(c))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondPaged(c, "enrollments", rows, meta)
}
