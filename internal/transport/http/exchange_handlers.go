package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"points-exchange-service/internal/domain"
)

type exchangeRequest struct {
	Subject string `json:"subject" binding:"required"`
	Grade   int    `json:"grade" binding:"required,min=1,max=5"`
	Points  int    `json:"points" binding:"required,min=1,max=1000000"`
}

func (s *Server) initiateExchange(c *gin.Context) {
	var req exchangeRequest
	if err := bindJSON(c, &req); err != nil {
		s.metrics.ObserveExchange("initiate", "invalid")
		writeError(c, s.log, err)
		return
	}
	n, err := s.exchanges.InitiateExchange(c.Request.Context(), domain.ExchangeRequest{
		Student: currentIdentity(c).Username,
		Subject: req.Subject,
		Grade:   req.Grade,
		Points:  req.Points,
	})
	if err != nil {
		s.metrics.ObserveExchange("initiate", outcome(err))
		writeError(c, s.log, err)
		return
	}
	s.metrics.ObserveExchange("initiate", "ok")
	respond(c, http.StatusCreated, "exchange request sent", n)
}

func (s *Server) listNotifications(c *gin.Context) {
	list, err := s.exchanges.ListNotifications(c.Request.Context(), currentIdentity(c).Username)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	respond(c, http.StatusOK, "ok", list)
}

func (s *Server) resolveExchange(c *gin.Context) {
	n, err := s.exchanges.ResolveExchange(c.Request.Context(), c.Param("id"), currentIdentity(c))
	if err != nil {
		s.metrics.ObserveExchange("resolve", outcome(err))
		writeError(c, s.log, err)
		return
	}
	s.metrics.ObserveExchange("resolve", "ok")
	respond(c, http.StatusOK, "grade assigned", n)
}

func (s *Server) dismissNotification(c *gin.Context) {
	if err := s.exchanges.DismissNotification(c.Request.Context(), c.Param("id"), currentIdentity(c)); err != nil {
		s.metrics.ObserveExchange("dismiss", outcome(err))
		writeError(c, s.log, err)
		return
	}
	s.metrics.ObserveExchange("dismiss", "ok")
	respond(c, http.StatusOK, "notification dismissed", nil)
}

// outcome names a failed exchange action for metrics.
func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, domain.ErrNoTeacherForSubject):
		return "no_teacher"
	case errors.Is(err, domain.ErrNotificationNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotificationPending):
		return "pending"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return "invalid"
	}
	return "error"
}
