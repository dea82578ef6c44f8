// Package server implements the Control API (spec §4, §6): a thin,
// algorithm-free gin HTTP surface over the engine components. Every
// response uses the same {success, message?, data?, error?} envelope.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weaveflow/weaveflow/engine/core"
)

// Envelope is the uniform response body every route returns (spec §6).
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   *ProblemDetail `json:"error,omitempty"`
}

// ProblemDetail is the RFC-7807-flavored error detail carried on a
// failed Envelope, mirroring the teacher's ProblemDocument shape.
type ProblemDetail struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func respondOK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// respondError maps a *core.Error to an HTTP status and writes the
// failure envelope; any other error is treated as an unclassified
// internal failure.
func respondError(c *gin.Context, err error) {
	var coreErr *core.Error
	if asCoreError(err, &coreErr) {
		status := statusForCode(coreErr.Code)
		c.JSON(status, Envelope{
			Success: false,
			Message: coreErr.Message,
			Error:   &ProblemDetail{Status: status, Code: string(coreErr.Code), Detail: coreErr.Error()},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: err.Error(),
		Error:   &ProblemDetail{Status: http.StatusInternalServerError, Code: "INTERNAL", Detail: err.Error()},
	})
}

func asCoreError(err error, target **core.Error) bool {
	for err != nil {
		if ce, ok := err.(*core.Error); ok {
			*target = ce
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

func statusForCode(code core.ErrorCode) int {
	switch code {
	case core.ErrConfigInvalid, core.ErrInputMissing:
		return http.StatusBadRequest
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrConcurrencyLimit:
		return http.StatusTooManyRequests
	case core.ErrDependencyMissing:
		return http.StatusFailedDependency
	case core.ErrCancelled:
		return http.StatusGone
	case core.ErrLLM, core.ErrIO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
