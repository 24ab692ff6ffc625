package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jCool10/LearnSmart-sub001/internal/http/response"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pagination"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

// pathUUID parses a uuid path parameter, writing a 400 when it is malformed.
func pathUUID(c *gin.Context, log *logger.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondAPIError(c, log, apierr.Validation(apierr.FieldError{Field: name, Message: "must be a valid UUID"}))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into dst. An empty body is accepted when
// allowEmpty is set.
func bindJSON(c *gin.Context, log *logger.Logger, dst any, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		response.RespondAPIError(c, log, apierr.BadRequest("invalid request body"))
		return false
	}
	return true
}

// currentUserID returns the authenticated caller. RequireAuth guarantees it
// on protected routes.
func currentUserID(c *gin.Context) uuid.UUID {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}

func optionalUserID(c *gin.Context) *uuid.UUID {
	if id := currentUserID(c); id != uuid.Nil {
		return &id
	}
	return nil
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func pageParams(c *gin.Context) pagination.Params {
	return pagination.Resolve(c.Query("page"), c.Query("limit"))
}
