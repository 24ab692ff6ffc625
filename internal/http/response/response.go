package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pagination"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type Meta struct {
	Timestamp  time.Time        `json:"timestamp"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Meta    Meta   `json:"meta"`
}

type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Errors  []apierr.FieldError `json:"errors,omitempty"`
}

var now = func() time.Time { return time.Now().UTC() }

func respond(c *gin.Context, status int, message string, data any, page *pagination.Meta) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    Meta{Timestamp: now(), Pagination: page},
	})
}

func RespondOK(c *gin.Context, message string, data any) {
	respond(c, http.StatusOK, message, data, nil)
}

func RespondCreated(c *gin.Context, message string, data any) {
	respond(c, http.StatusCreated, message, data, nil)
}

func RespondPaged(c *gin.Context, message string, data any, page pagination.Meta) {
	respond(c, http.StatusOK, message, data, &page)
}

func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Success: false, Message: message, Code: code})
}

// RespondAPIError writes err using its apierr kind. Errors without a kind are
// treated as internal and logged; their cause never reaches the client.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae, ok := apierr.As(err)
	if !ok {
		ae = apierr.Internal(err)
	}
	if ae.Status >= http.StatusInternalServerError && log != nil {
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		}
		log.Error("request failed", append(fields, ctxutil.LogFields(c.Request.Context())...)...)
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Success: false,
		Message: ae.Message(),
		Code:    ae.Code,
		Errors:  ae.Fields,
	})
}
