package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// StatusOf HTTP-статус для вида ошибки
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidState:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError отвечает ошибкой в конверте {"error":{...}}. Внутренние ошибки приходят без деталей.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindInternal
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusOf(kind), ErrorEnvelope{
		Error: APIError{
			Message: apperr.PublicMessage(err),
			Code:    string(kind),
		},
	})
}

// RespondBadRequest ошибка разбора запроса
func RespondBadRequest(c *gin.Context, msg string) {
	RespondError(c, apperr.Validation("%s", msg))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
