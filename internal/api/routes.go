package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/api/handlers"
	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/middleware"
)

// Dependencies wires the handlers. Metrics may be nil.
type Dependencies struct {
	Predictor   handlers.Predictor
	Analyzer    handlers.TechnicalAnalyzer
	Health      handlers.HealthOptions
	Metrics     *metrics.Recorder
	Logger      *logrus.Logger
	ServiceName string

	// AllowedOrigins enables CORS for browser clients; empty disables it.
	AllowedOrigins []string
}

// NewRouter builds a gin engine with the standard middleware chain and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.CORS(deps.AllowedOrigins),
		middleware.TelemetryMiddleware(deps.ServiceName),
		middleware.RequestAttributes(),
		middleware.RequestLogger(logger),
		deps.Metrics.Middleware(),
	)
	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	handlers.RegisterValidators()

	health := handlers.NewHealthHandler(deps.Health, deps.Logger)
	router.GET("/health", health.HealthCheck)
	router.GET("/health/live", health.LivenessCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")
	{
		prediction := handlers.NewPredictionHandler(deps.Predictor, deps.Logger)
		api.GET("/predict", prediction.GetPrediction)
		api.POST("/predict", prediction.PostBatchPrediction)

		technical := handlers.NewTechnicalHandler(deps.Analyzer, deps.Logger)
		api.GET("/technical", technical.GetTechnical)
	}
}
