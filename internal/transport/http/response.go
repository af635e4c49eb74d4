package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"points-exchange-service/internal/domain"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// writeError maps domain errors to status codes. Anything unrecognised is a
// storage fault: logged in full, answered with a generic message.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope{
			Success: false,
			Message: "invalid request",
			Errors:  verr.FieldMap(),
		})
	case errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrSubjectAlreadySet),
		errors.Is(err, domain.ErrNotificationPending):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrNoTeacherForSubject),
		errors.Is(err, domain.ErrAccountNotFound):
		fail(c, http.StatusNotFound, err.Error())
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
