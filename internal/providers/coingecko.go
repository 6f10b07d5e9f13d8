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

// CoinGeckoClient fetches market snapshots and price history.
type CoinGeckoClient struct {
	*Client
}

// NewCoinGeckoClient creates a CoinGecko client; a configured API key is sent as the demo key header.
func NewCoinGeckoClient(cfg config.ProviderConfig) *CoinGeckoClient {
	c := NewClient("coingecko", cfg)
	if cfg.APIKey != "" {
		c.setHeader("x-cg-demo-api-key", cfg.APIKey)
	}
	return &CoinGeckoClient{Client: c}
}

type geckoMarket struct {
	ID                  string   `json:"id"`
	Symbol              string   `json:"symbol"`
	Name                string   `json:"name"`
	CurrentPrice        *float64 `json:"current_price"`
	MarketCap           *float64 `json:"market_cap"`
	TotalVolume         *float64 `json:"total_volume"`
	High24h             *float64 `json:"high_24h"`
	Low24h              *float64 `json:"low_24h"`
	PriceChange24h      *float64 `json:"price_change_percentage_24h"`
	PriceChange24hInCur *float64 `json:"price_change_percentage_24h_in_currency"`
	PriceChange7dInCur  *float64 `json:"price_change_percentage_7d_in_currency"`
	PriceChange30dInCur *float64 `json:"price_change_percentage_30d_in_currency"`
}

// GetMarketData returns the current market snapshot for one coin.
func (c *CoinGeckoClient) GetMarketData(ctx context.Context, coinID string) (*models.MarketData, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", coinID)
	params.Set("price_change_percentage", "24h,7d,30d")

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/coins/markets", params, &raw); err != nil {
		return nil, err
	}
	return ParseMarkets(raw, coinID)
}

// ParseMarkets extracts coinID from a /coins/markets payload. Null numeric fields become 0.
func ParseMarkets(body []byte, coinID string) (*models.MarketData, error) {
	var markets []geckoMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("failed to decode coingecko markets: %w", err)
	}
	for _, m := range markets {
		if m.ID != coinID {
			continue
		}
		change24h := m.PriceChange24hInCur
		if change24h == nil {
			change24h = m.PriceChange24h
		}
		data := &models.MarketData{
			CoinID:         m.ID,
			Symbol:         m.Symbol,
			Name:           m.Name,
			Price:          orZero(m.CurrentPrice),
			PriceChange24h: orZero(change24h),
			PriceChange7d:  orZero(m.PriceChange7dInCur),
			PriceChange30d: orZero(m.PriceChange30dInCur),
			Volume24h:      orZero(m.TotalVolume),
			MarketCap:      orZero(m.MarketCap),
			High24h:        orZero(m.High24h),
			Low24h:         orZero(m.Low24h),
		}
		if data.Price <= 0 {
			return nil, fmt.Errorf("coingecko returned no price for %s", coinID)
		}
		return data, nil
	}
	return nil, fmt.Errorf("coingecko market %s: %w", coinID, ErrNotFound)
}

type geckoChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// GetMarketChart returns price and volume series for the last days days.
func (c *CoinGeckoClient) GetMarketChart(ctx context.Context, coinID string, days int) ([]models.SeriesPoint, []models.SeriesPoint, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))

	var chart geckoChart
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(coinID)+"/market_chart", params, &chart); err != nil {
		return nil, nil, err
	}
	if len(chart.Prices) == 0 {
		return nil, nil, fmt.Errorf("coingecko chart %s: %w", coinID, ErrNotFound)
	}
	return toSeries(chart.Prices), toSeries(chart.TotalVolumes), nil
}

func toSeries(raw [][2]float64) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, len(raw))
	for _, p := range raw {
		points = append(points, models.SeriesPoint{Timestamp: msToTime(int64(p[0])), Value: p[1]})
	}
	return points
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
