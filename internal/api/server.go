package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"innkeeper/internal/booking"
	"innkeeper/internal/events"
	"innkeeper/internal/observability"
	"innkeeper/internal/realtime"
)

// Server exposes the fulfillment service over HTTP: the confirmation hook,
// live event feeds (SSE and WebSocket), lock inspection and health/metrics.
type Server struct {
	service  *booking.Service
	bus      *events.Bus
	hub      *realtime.Hub
	metrics  *observability.Metrics
	logger   *zap.Logger
	limiter  *RateLimiter
	upgrader websocket.Upgrader
}

// ServerConfig carries the collaborators for an API Server. Service is
// required; everything else degrades gracefully when nil.
type ServerConfig struct {
	Service *booking.Service
	Bus     *events.Bus
	Hub     *realtime.Hub
	Metrics *observability.Metrics
	Logger  *zap.Logger
	Limiter *RateLimiter
}

// NewServer constructs a Server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service: cfg.Service,
		bus:     cfg.Bus,
		hub:     cfg.Hub,
		metrics: cfg.Metrics,
		logger:  logger,
		limiter: cfg.Limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	if s.limiter != nil {
		router.Use(s.rateLimit())
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/bookings/confirm", s.confirmBooking)
		v1.GET("/bookings/events", s.streamBookingEvents)
		v1.GET("/bookings/live", s.liveBookingFeed)
		v1.GET("/locks", s.activeLocks)
	}

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(observability.Handler(s.metrics)))

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("elapsed", time.Since(start)))
		}
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.limiter.Wait(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) confirmBooking(c *gin.Context) {
	var req booking.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res := s.service.ConfirmBooking(c.Request.Context(), req)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusConflict
		if res.Message != "booking is already being processed" {
			status = http.StatusUnprocessableEntity
		}
	}
	c.JSON(status, res)
}

func (s *Server) activeLocks(c *gin.Context) {
	keys := s.service.Locks().ActiveKeys()
	c.JSON(http.StatusOK, gin.H{
		"count": len(keys),
		"keys":  keys,
	})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) liveBookingFeed(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed not available"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.Register <- conn
}
