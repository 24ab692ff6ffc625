package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jCool10/LearnSmart-sub001/internal/http/response"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type CategoryHandler struct {
	log        *logger.Logger
	categories services.CategoryService
}

func NewCategoryHandler(log *logger.Logger, categories services.CategoryService) *CategoryHandler {
	return &CategoryHandler{log: log.With("handler", "CategoryHandler"), categories: categories}
}

func (h *CategoryHandler) List(c *gin.Context) {
	out, err := h.categories.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "categories", out)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req services.CategoryInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, "category created", out)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.categories.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "category updated", out)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "category deleted", nil)
}

type TagHandler struct {
	log  *logger.Logger
	tags services.TagService
}

func NewTagHandler(log *logger.Logger, tags services.TagService) *TagHandler {
	return &TagHandler{log: log.With("handler", "TagHandler"), tags: tags}
}

func (h *TagHandler) List(c *gin.Context) {
	out, err := h.tags.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "tags", out)
}

func (h *TagHandler) Create(c *gin.Context) {
	var req services.TagInput
	if !bindJSON(c, h.log, &req, false) {
		return
	}
	out, err := h.tags.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, "tag created", out)
}

func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.tags.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, "tag deleted", nil)
}
