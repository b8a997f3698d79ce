// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the subset of logger.Logger the responder needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Responder writes normalized errors to gin responses.
type Responder struct {
	logger Logger
}

func NewResponder(logger Logger) *Responder {
	return &Responder{logger: logger}
}

// JSON aborts the request with a {"code","message","details"} body, plus
// "fields" when the error carries per-field metadata.
func (r *Responder) JSON(c *gin.Context, err error) {
	stdErr := r.normalizeError(err)
	r.logError(c, stdErr)
	body := gin.H{
		"code":    stdErr.Code,
		"message": stdErr.Message,
		"details": stdErr.Details,
	}
	if len(stdErr.Metadata) > 0 {
		body["fields"] = stdErr.Metadata
	}
	c.AbortWithStatusJSON(stdErr.Status(), body)
}

// Text aborts the request with a plain-text body, for browser-facing routes.
func (r *Responder) Text(c *gin.Context, err error) {
	stdErr := r.normalizeError(err)
	r.logError(c, stdErr)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.AbortWithStatus(stdErr.Status())
	_, _ = c.Writer.WriteString(stdErr.Message)
}

// normalizeError ensures we always have a StandardError
func (r *Responder) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:       ErrCodeInternal,
		Message:    "Unexpected error",
		Details:    errDetails(err),
		HTTPStatus: http.StatusInternalServerError,
		Timestamp:  time.Now().UTC(),
	}
}

func (r *Responder) logError(c *gin.Context, stdErr *StandardError) {
	if r.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"code":    stdErr.Code,
		"message": stdErr.Message,
		"details": stdErr.Details,
		"status":  stdErr.Status(),
		"path":    c.Request.URL.Path,
	}
	if stdErr.Status() >= http.StatusInternalServerError {
		r.logger.Error("request failed", fields)
		return
	}
	r.logger.Warn("request rejected", fields)
}
