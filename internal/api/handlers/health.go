package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/services"
)

const healthCheckTimeout = 3 * time.Second

// Component statuses.
const (
	StatusHealthy       = "healthy"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not_configured"
)

// HealthChecker is implemented by the Postgres and Redis connections.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BreakerReporter exposes circuit breaker statistics.
type BreakerReporter interface {
	GetAllStats() map[string]services.CircuitBreakerStats
}

type HealthHandler struct {
	db        HealthChecker
	redis     HealthChecker
	breakers  BreakerReporter
	flags     config.FeatureFlags
	backend   string
	version   string
	startTime time.Time
	logger    *logrus.Logger
	memory    func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

type HealthOptions struct {
	DB       HealthChecker
	Redis    HealthChecker
	Breakers BreakerReporter
	Flags    config.FeatureFlags
	Backend  string
	Version  string
}

type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

type HealthResponse struct {
	Status       string                                  `json:"status"`
	Timestamp    time.Time                               `json:"timestamp"`
	Version      string                                  `json:"version"`
	Uptime       string                                  `json:"uptime"`
	CacheBackend string                                  `json:"cache_backend"`
	Services     map[string]string                       `json:"services"`
	Providers    config.FeatureFlags                     `json:"providers"`
	Breakers     map[string]services.CircuitBreakerStats `json:"circuit_breakers,omitempty"`
	Memory       *MemoryStats                            `json:"memory,omitempty"`
}

func NewHealthHandler(opts HealthOptions, logger *logrus.Logger) *HealthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HealthHandler{
		db:        opts.DB,
		redis:     opts.Redis,
		breakers:  opts.Breakers,
		flags:     opts.Flags,
		backend:   opts.Backend,
		version:   opts.Version,
		startTime: time.Now(),
		logger:    logger,
		memory:    mem.VirtualMemoryWithContext,
	}
}

// HealthCheck reports 503 when a configured store is unreachable.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	svcs := map[string]string{
		"database": h.check(ctx, "database", h.db),
		"redis":    h.check(ctx, "redis", h.redis),
	}

	status := StatusHealthy
	for _, s := range svcs {
		if s == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}

	resp := HealthResponse{
		Status:       status,
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		CacheBackend: h.backend,
		Services:     svcs,
		Providers:    h.flags,
	}
	if h.breakers != nil {
		resp.Breakers = h.breakers.GetAllStats()
	}
	if vm, err := h.memory(ctx); err == nil {
		resp.Memory = &MemoryStats{
			TotalBytes:     vm.Total,
			UsedBytes:      vm.Used,
			AvailableBytes: vm.Available,
			UsedPercent:    vm.UsedPercent,
		}
	} else {
		h.logger.WithError(err).Debug("Memory stats unavailable")
	}

	code := http.StatusOK
	if status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// LivenessCheck only reports that the process is serving requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

func (h *HealthHandler) check(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return StatusNotConfigured
	}
	if err := checker.HealthCheck(ctx); err != nil {
		h.logger.WithField("service", name).WithError(err).Warn("Health check failed")
		return StatusUnhealthy
	}
	return StatusHealthy
}
