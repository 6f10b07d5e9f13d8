package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
)

// FearGreedClient reads the Alternative.me Fear & Greed index.
type FearGreedClient struct {
	*Client
}

func NewFearGreedClient(cfg config.ProviderConfig) *FearGreedClient {
	return &FearGreedClient{Client: NewClient("alternative_me", cfg)}
}

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// GetSentiment returns the latest index reading.
func (c *FearGreedClient) GetSentiment(ctx context.Context) (models.SentimentData, error) {
	params := url.Values{}
	params.Set("limit", "1")

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/fng/", params, &raw); err != nil {
		return models.SentimentData{}, err
	}
	return ParseFearGreed(raw)
}

// ParseFearGreed validates an /fng/ payload; the value must be an integer in [0,100].
func ParseFearGreed(body []byte) (models.SentimentData, error) {
	var resp fngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.SentimentData{}, fmt.Errorf("failed to decode fear & greed: %w", err)
	}
	if len(resp.Data) == 0 {
		return models.SentimentData{}, fmt.Errorf("fear & greed: %w", ErrNotFound)
	}

	value, err := strconv.Atoi(resp.Data[0].Value)
	if err != nil {
		return models.SentimentData{}, fmt.Errorf("invalid fear & greed value %q: %w", resp.Data[0].Value, err)
	}
	if value < 0 || value > 100 {
		return models.SentimentData{}, fmt.Errorf("fear & greed value %d out of range", value)
	}

	label := resp.Data[0].ValueClassification
	if label == "" {
		label = "Neutral"
	}
	return models.SentimentData{FearGreedIndex: value, FearGreedLabel: label}, nil
}
