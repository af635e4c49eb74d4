package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
	"points-exchange-service/internal/metrics"
)

// Options carries the transport settings taken from config.
type Options struct {
	CookieName     string
	CookieSecure   bool
	SessionTTL     time.Duration
	AllowedOrigins []string
	StaticDir      string
	RateLimit      int
	RateWindow     time.Duration
	// NotificationRefresh is how often an open stream resends the list even without a signal.
	NotificationRefresh time.Duration
}

// Services are the use cases exposed over HTTP.
type Services struct {
	Accounts  *app.AccountService
	Exchanges *app.ExchangeService
	Quizzes   *app.QuizService
	Hub       *app.NotificationHub
}

// Server holds the handlers and the gin engine routing to them.
type Server struct {
	accounts  *app.AccountService
	exchanges *app.ExchangeService
	quizzes   *app.QuizService
	hub       *app.NotificationHub
	metrics   *metrics.Metrics
	log       *zap.Logger
	opts      Options
	upgrader  websocket.Upgrader
	engine    *gin.Engine
}

func NewServer(svc Services, m *metrics.Metrics, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.CookieName == "" {
		opts.CookieName = "sid"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if opts.NotificationRefresh <= 0 {
		opts.NotificationRefresh = 10 * time.Second
	}
	setupValidator()

	s := &Server{
		accounts:  svc.Accounts,
		exchanges: svc.Exchanges,
		quizzes:   svc.Quizzes,
		hub:       svc.Hub,
		metrics:   m,
		log:       log,
		opts:      opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog(s.log))
	r.Use(s.metrics.Middleware())
	r.Use(secureHeaders())
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", s.metrics.Handler())

	limiter := newRateLimiter(s.opts.RateLimit, s.opts.RateWindow)
	api := r.Group("/api")
	api.POST("/accounts", limiter.middleware(), s.register)
	api.POST("/sessions", limiter.middleware(), s.login)

	authed := api.Group("", s.requireSession())
	authed.DELETE("/sessions", s.logout)
	authed.GET("/me", s.profile)
	authed.GET("/me/points", s.balance)
	authed.PUT("/me/subject", requireRole(domain.RoleTeacher), s.setSubject)

	authed.GET("/quizzes", s.listQuizzes)
	authed.GET("/quizzes/:id", s.getQuiz)
	authed.POST("/quizzes", requireRole(domain.RoleTeacher), s.createQuiz)
	authed.POST("/quizzes/:id/submissions", requireRole(domain.RoleStudent), s.submitAnswers)

	authed.POST("/exchanges", requireRole(domain.RoleStudent), s.initiateExchange)
	authed.GET("/notifications", s.listNotifications)
	authed.POST("/notifications/:id/resolve", requireRole(domain.RoleTeacher), s.resolveExchange)
	authed.DELETE("/notifications/:id", s.dismissNotification)

	r.GET("/ws/notifications", s.requireSession(), s.streamNotifications)

	if s.opts.StaticDir != "" {
		files := http.FileServer(http.Dir(s.opts.StaticDir))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				fail(c, http.StatusNotFound, "not found")
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	}
	return r
}

// checkOrigin accepts same-host requests and configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
