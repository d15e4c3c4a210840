// Package api is the read/ops HTTP surface over the store and analytics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/config"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

// Repository is the slice of the store the API reads from. *store.Store
// satisfies it.
type Repository interface {
	Ping(ctx context.Context) error

	ListProvinces(ctx context.Context) ([]store.Province, error)
	GetProvince(ctx context.Context, id string) (*store.Province, error)

	ListDistricts(ctx context.Context, provinceID string) ([]store.District, error)
	SearchDistrictsByName(ctx context.Context, fragment string) ([]store.District, error)
	GetDistrict(ctx context.Context, id string) (*store.District, error)
	GetDistrictByInternalID(ctx context.Context, internalID string) (*store.District, error)
	GetDistrictByAdminID(ctx context.Context, adminID string) (*store.District, error)

	GetLatestReading(ctx context.Context, districtInternalID string) (*store.CurrentReading, error)
	ListReadingsSince(ctx context.Context, districtInternalID, componentID string, since time.Time) ([]store.CurrentReading, error)
	CompareDistricts(ctx context.Context, date time.Time, componentID string) ([]store.RankedDistrict, error)
	GetForecastWindow(ctx context.Context, districtInternalID string, maxDaysAhead int) ([]store.ForecastPoint, error)
	ListHistorical(ctx context.Context, provinceID string, from, to time.Time) ([]store.HistoricalPoint, error)
	LatestGridSnapshot(ctx context.Context) ([]store.GridPoint, error)
	ListIngestionLogs(ctx context.Context, q store.IngestionLogQuery) ([]store.IngestionLogEntry, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	repo   Repository
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, repo Repository) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, repo: repo, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/provinces", s.handleListProvinces)
	s.engine.GET("/districts", s.handleDistricts)
	s.engine.GET("/districts/:id", s.handleGetDistrict)
	s.engine.GET("/districts/:id/latest", s.handleLatestReading)
	s.engine.GET("/districts/:id/trend", s.handleTrend)
	s.engine.GET("/districts/:id/forecast", s.handleForecastWindow)
	s.engine.GET("/compare", s.handleCompare)
	s.engine.GET("/grid/nearest", s.handleNearestGrid)
	s.engine.GET("/historical", s.handleHistorical)

	audit := s.engine.Group("/audit")
	if s.cfg.BearerToken != "" {
		audit.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}
	audit.GET("", s.handleAuditLog)
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
