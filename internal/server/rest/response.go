package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
)

const msgInternal = "Internal server error"

// envelope is the body of every response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{
		StatusCode: status,
		Success:    true,
		Data:       data,
		Message:    message,
		Timestamp:  timestamp(),
	})
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{
		StatusCode: status,
		Success:    false,
		Error:      message,
		Message:    message,
		Timestamp:  timestamp(),
	})
}

// fail writes the envelope for err and aborts the chain. Only AppError
// messages reach the caller; anything else becomes a generic 500.
func fail(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortWith(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	appErr, ok := common.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		abortWith(c, http.StatusInternalServerError, msgInternal)
		return
	}
	if appErr.Cause != nil {
		_ = c.Error(appErr.Cause)
	}
	abortWith(c, statusFor(appErr.Kind), appErr.Message)
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(kind, common.ErrorConflict), errors.Is(kind, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(kind, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(kind, common.ErrorPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
