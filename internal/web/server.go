// Package web exposes the ticker, submission form and moderation panel over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"dreamsite/internal/history"
	"dreamsite/internal/memorystore"
	"dreamsite/internal/ticker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Ticker is the read side of the market poller.
type Ticker interface {
	Snapshot() (ticker.Snapshot, bool)
	Subscribe(fn func(ticker.Snapshot)) (unsubscribe func())
}

// History reads stored quotes. It is nil unless quotes are being recorded.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Point, error)
}

type TabOptions struct {
	IdleTimeout time.Duration
}

type Options struct {
	AllowedOrigins []string
	CookieSecure   bool
	SubmitRate     int
	SubmitWindow   time.Duration
	History        History
}

type Server struct {
	engine  *gin.Engine
	ticker  Ticker
	tabs    *memorystore.TabStore[*Tab]
	hub     *Hub
	history History
	limiter *RateLimiter
	logger  *zap.Logger
}

// NewServer builds the router. The caller keeps ownership of tk and tabs.
func NewServer(opts Options, tk Ticker, tabs *memorystore.TabStore[*Tab], logger *zap.Logger) *Server {
	logger = logger.Named("web")

	s := &Server{
		engine:  gin.New(),
		ticker:  tk,
		tabs:    tabs,
		hub:     NewHub(tk, logger),
		history: opts.History,
		limiter: NewRateLimiter(opts.SubmitRate, opts.SubmitWindow),
		logger:  logger,
	}

	s.engine.Use(gin.Recovery(), requestLogger(logger))
	if len(opts.AllowedOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", tabHeader},
			ExposeHeaders:    []string{"Content-Length", tabHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.attachRoutes(opts)
	return s
}

func (s *Server) attachRoutes(opts Options) {
	r := s.engine

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/ticker", s.getTicker)
	api.GET("/ticker/stream", s.hub.Serve)
	if s.history != nil {
		api.GET("/ticker/history", s.getHistory)
	}

	tabbed := api.Group("", tabMiddleware(opts.CookieSecure))
	{
		tabbed.GET("/testimonials/form", s.getForm)
		tabbed.POST("/testimonials", RateLimitMiddleware(s.limiter), s.submitTestimonial)
	}

	admin := tabbed.Group("/admin")
	{
		admin.GET("/session", s.getSession)
		admin.POST("/login", s.login)
		admin.POST("/logout", s.logout)
		admin.GET("/testimonials", s.listTestimonials)
		admin.DELETE("/testimonials/:id", s.deleteTestimonial)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close disconnects stream clients and stops the rate limiter.
func (s *Server) Close() {
	s.hub.Close()
	s.limiter.Close()
}

// callContext keeps request values but not cancellation: a gateway call
// already issued runs to completion even if the client goes away.
func callContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (s *Server) tab(c *gin.Context) *Tab {
	return s.tabs.Get(c.GetString(tabKey))
}
