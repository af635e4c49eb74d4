package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"points-exchange-service/internal/domain"
)

const (
	identityKey = "identity"
	tokenKey    = "sessionToken"
)

// sessionToken reads the session from the cookie, then a bearer header, then
// the token query parameter used by websocket clients.
func (s *Server) sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(s.opts.CookieName); err == nil && cookie != "" {
		return cookie
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}

// requireSession resolves the caller's identity or aborts with 401.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.sessionToken(c)
		identity, err := s.accounts.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, s.log, err)
			return
		}
		c.Set(identityKey, identity)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// requireRole must run after requireSession.
func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentIdentity(c).Role != role {
			fail(c, http.StatusForbidden, "only "+string(role)+"s may do this")
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) domain.Identity {
	v, _ := c.Get(identityKey)
	identity, _ := v.(domain.Identity)
	return identity
}

func currentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter limits requests per client IP. Idle entries are pruned inline
// at most once per minute.
type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiry    time.Duration
	lastPrune time.Time
}

func newRateLimiter(maxRequests int, window time.Duration) *rateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		expiry:   expiry,
	}
}

func (l *rateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.expiry {
				delete(l.visitors, k)
			}
		}
		l.lastPrune = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			fail(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}

func secureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if identity := currentIdentity(c); identity.Username != "" {
			fields = append(fields, zap.String("user", identity.Username))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
