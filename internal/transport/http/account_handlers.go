package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"points-exchange-service/internal/domain"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=teacher student"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type subjectRequest struct {
	Subject string `json:"subject" binding:"required"`
}

type sessionResponse struct {
	Token        string      `json:"token"`
	Username     string      `json:"username"`
	Role         domain.Role `json:"role"`
	Subject      string      `json:"subject,omitempty"`
	NeedsSubject bool        `json:"needsSubject"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, s.log, err)
		return
	}
	acc, err := s.accounts.Register(c.Request.Context(), req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	respond(c, http.StatusCreated, "account created", acc)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, s.log, err)
		return
	}
	res, err := s.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	s.setSessionCookie(c, res.Token, int(s.opts.SessionTTL.Seconds()))
	respond(c, http.StatusOK, "logged in", sessionResponse{
		Token:        res.Token,
		Username:     res.Account.Username,
		Role:         res.Account.Role,
		Subject:      res.Account.Subject,
		NeedsSubject: res.NeedsSubject,
	})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.accounts.Logout(c.Request.Context(), currentToken(c)); err != nil {
		writeError(c, s.log, err)
		return
	}
	s.setSessionCookie(c, "", -1)
	respond(c, http.StatusOK, "logged out", nil)
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, value, maxAge, "/", "", s.opts.CookieSecure, true)
}

func (s *Server) profile(c *gin.Context) {
	acc, err := s.accounts.Profile(c.Request.Context(), currentIdentity(c).Username)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	respond(c, http.StatusOK, "ok", acc)
}

func (s *Server) balance(c *gin.Context) {
	points, err := s.accounts.Balance(c.Request.Context(), currentIdentity(c).Username)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	respond(c, http.StatusOK, "ok", gin.H{"points": points})
}

func (s *Server) setSubject(c *gin.Context) {
	var req subjectRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, s.log, err)
		return
	}
	identity, err := s.accounts.SetSubject(c.Request.Context(), currentToken(c), currentIdentity(c), req.Subject)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	respond(c, http.StatusOK, "subject set", identity)
}
