package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/middleware"
	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/services"
	"github.com/irfndi/coinlens-go/internal/utils"
)

// Predictor is the part of the prediction service the handler needs.
type Predictor interface {
	Predict(ctx context.Context, coinID string, opts services.PredictOptions) (*services.Prediction, error)
	PredictBatch(ctx context.Context, coins []models.CoinRef) ([]models.BatchPrediction, int, error)
	CacheTTL() time.Duration
}

type PredictionHandler struct {
	predictor Predictor
	logger    *logrus.Logger
}

type BatchPredictionRequest struct {
	Coins []models.CoinRef `json:"coins" binding:"required,min=1,dive"`
}

func NewPredictionHandler(predictor Predictor, logger *logrus.Logger) *PredictionHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PredictionHandler{predictor: predictor, logger: logger}
}

// GetPrediction handles GET /api/predict?coin=&name=&quick=&skipCache=
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	coinID := utils.NormalizeCoinID(c.Query("coin"))
	if coinID == "" {
		respondError(c, http.StatusBadRequest, "coin parameter is required")
		return
	}
	if !utils.ValidCoinID(coinID) {
		respondError(c, http.StatusBadRequest, "Invalid coin id")
		return
	}

	opts := services.PredictOptions{
		CoinName:  c.Query("name"),
		Quick:     queryFlag(c, "quick"),
		SkipCache: queryFlag(c, "skipCache"),
	}
	prediction, err := h.predictor.Predict(c.Request.Context(), coinID, opts)
	if err != nil {
		h.fail(c, coinID, err)
		return
	}

	if opts.SkipCache {
		c.Header("Cache-Control", "no-store")
	} else {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.predictor.CacheTTL().Seconds())))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: prediction.Result, Source: prediction.Source})
}

// PostBatchPrediction handles POST /api/predict with {"coins":[{"id","name"}]}.
func (h *PredictionHandler) PostBatchPrediction(c *gin.Context) {
	var req BatchPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	for i := range req.Coins {
		req.Coins[i].ID = utils.NormalizeCoinID(req.Coins[i].ID)
	}

	results, count, err := h.predictor.PredictBatch(c.Request.Context(), req.Coins)
	if err != nil {
		h.fail(c, "", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: results, Count: &count})
}

func (h *PredictionHandler) fail(c *gin.Context, coinID string, err error) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrMarketDataUnavailable):
		respondError(c, http.StatusNotFound, "Market data unavailable for "+coinID)
	default:
		middleware.RecordError(c, err, "prediction failed")
		h.logger.WithFields(logrus.Fields{
			"coin":       coinID,
			"request_id": middleware.RequestIDFrom(c),
		}).WithError(err).Error("Prediction request failed")
		respondError(c, http.StatusInternalServerError, "Failed to generate prediction")
	}
}

func queryFlag(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
