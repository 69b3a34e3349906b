package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError picks the status from the service error kind. code is
// used for server errors only; client errors carry their own code.
func RespondServiceError(c *gin.Context, code string, err error) {
	status, kind := StatusOf(err)
	if kind == "" {
		kind = code
	}
	RespondError(c, status, kind, err)
}

func StatusOf(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, pkgerrors.ErrTagInProgress):
		return http.StatusConflict, "tag_in_progress"
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case pkgerrors.IsValidation(err):
		return http.StatusBadRequest, "invalid_argument"
	default:
		return http.StatusInternalServerError, ""
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
