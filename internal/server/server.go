// Package server exposes the learning service over a JSON HTTP API.
package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/config"
	"github.com/abhisek/mixcoach/internal/learning"
	"github.com/abhisek/mixcoach/internal/metrics"
)

type Server struct {
	cfg     config.ServerConfig
	svc     *learning.Service
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	log     *zap.Logger
	limiter *rateLimiter
	engine  *gin.Engine
}

// New builds the router. m may be nil, in which case /metrics is not served.
func New(cfg config.ServerConfig, svc *learning.Service, cat *catalog.Catalog, m *metrics.Metrics, log *zap.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		catalog: cat,
		metrics: m,
		log:     log.Named("http"),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = newRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(s.cfg.CORSOrigins)))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
		r.GET("/metrics", s.metrics.Handler())
	}
	r.GET("/health", s.health)

	api := r.Group("/api")
	if s.limiter != nil {
		api.Use(s.limiter.Middleware())
	}

	users := api.Group("/users")
	users.POST("", s.createUser)
	users.GET("/:id", s.getUser)
	users.GET("/:id/dashboard", s.dashboard)
	users.GET("/:id/learning-plan", s.learningPlan)
	users.POST("/:id/progress", s.updateProgress)
	users.GET("/:id/history", s.history)

	as := api.Group("/assessment")
	as.POST("/start", s.startAssessment)
	as.POST("/submit", s.submitAssessment)
	as.GET("/questions/:category", s.categoryQuestions)

	content := api.Group("/content")
	content.GET("", s.listContent)
	content.GET("/categories/summary", s.contentSummary)
	content.GET("/:id", s.getContent)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// HTTPServer wraps the router with the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}
