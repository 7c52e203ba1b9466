package webapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"telewatch-go/internal/domain/auth"
	platformerrors "telewatch-go/internal/platform/errors"
	httptransport "telewatch-go/internal/transport/http"
)

// Service exposes the operational endpoints of the telemetry server.
type Service struct {
	manager    *auth.Manager
	sinkDriver string
	logger     httptransport.Logger
	startedAt  time.Time
}

// NewService wires the ops API against a live auth manager.
func NewService(manager *auth.Manager, sinkDriver string, logger httptransport.Logger) (*Service, error) {
	if manager == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "webapi.new", "webapi requires an auth manager")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "webapi.new", "webapi requires a logger")
	}
	return &Service{
		manager:    manager,
		sinkDriver: sinkDriver,
		logger:     logger,
		startedAt:  time.Now(),
	}, nil
}

// Register binds the routes onto the /api group.
func (s *Service) Register(router *gin.RouterGroup) {
	router.GET("/health", s.handleHealth)
	router.GET("/stats", s.handleStats)
	router.POST("/credentials/reload", s.handleCredentialsReload)

	s.logger.Info("[WebAPI] ops routes registered")
}

func (s *Service) handleHealth(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}, "")
}

func (s *Service) handleStats(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"tokens":      s.manager.Ledger().Stats(),
		"credentials": s.manager.Credentials().Count(),
		"sink_driver": s.sinkDriver,
	}, "")
}

func (s *Service) handleCredentialsReload(c *gin.Context) {
	if err := s.manager.Credentials().Reload(); err != nil {
		s.logger.Error("[WebAPI] credential reload failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "credential reload failed", nil)
		return
	}
	count := s.manager.Credentials().Count()
	s.logger.Info("[WebAPI] credentials reloaded, %d users", count)
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"credentials": count}, "reloaded")
}
