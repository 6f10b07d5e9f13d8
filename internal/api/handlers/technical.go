package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/middleware"
	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/services"
	"github.com/irfndi/coinlens-go/internal/utils"
)

type TechnicalAnalyzer interface {
	Analyze(ctx context.Context, coinID, timeframe string) (*models.TechnicalAnalysis, error)
}

type TechnicalHandler struct {
	analyzer TechnicalAnalyzer
	logger   *logrus.Logger
}

func NewTechnicalHandler(analyzer TechnicalAnalyzer, logger *logrus.Logger) *TechnicalHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TechnicalHandler{analyzer: analyzer, logger: logger}
}

// GetTechnical handles GET /api/technical?coin=&timeframe=
func (h *TechnicalHandler) GetTechnical(c *gin.Context) {
	coinID := utils.NormalizeCoinID(c.Query("coin"))
	if coinID == "" {
		respondError(c, http.StatusBadRequest, "coin parameter is required")
		return
	}
	if !utils.ValidCoinID(coinID) {
		respondError(c, http.StatusBadRequest, "Invalid coin id")
		return
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), coinID, c.Query("timeframe"))
	if err != nil {
		var verr *utils.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(c, http.StatusBadRequest, verr.Error())
		case errors.Is(err, services.ErrNoCandleSource):
			h.logger.WithField("coin", coinID).WithError(err).Warn("No candle source for technical analysis")
			respondError(c, http.StatusBadGateway, "Price history unavailable")
		default:
			middleware.RecordError(c, err, "technical analysis failed")
			h.logger.WithFields(logrus.Fields{
				"coin":       coinID,
				"request_id": middleware.RequestIDFrom(c),
			}).WithError(err).Error("Technical analysis failed")
			respondError(c, http.StatusInternalServerError, "Failed to compute technical analysis")
		}
		return
	}
	respondOK(c, http.StatusOK, analysis)
}
