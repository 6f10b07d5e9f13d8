package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
)

// FRED series backing the macro snapshot.
const (
	SeriesFedFunds    = "DFF"
	SeriesTreasury10Y = "DGS10"
	SeriesVIX         = "VIXCLS"
	SeriesDollarBroad = "DTWEXBGS"
)

// MacroClient reads macro series from a FRED-compatible observations API.
type MacroClient struct {
	*Client
	apiKey string
	// DollarSeries is optional. The broad trade-weighted index trades on a
	// different scale than DXY, so it is only read when explicitly set.
	DollarSeries string
}

func NewMacroClient(cfg config.MacroConfig) *MacroClient {
	return &MacroClient{
		Client:       NewClient("fred", cfg.ProviderConfig),
		apiKey:       cfg.APIKey,
		DollarSeries: cfg.DollarSeries,
	}
}

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// GetMacroData fetches every series concurrently. A missing series keeps its
// default; the call only fails when no series could be read.
func (c *MacroClient) GetMacroData(ctx context.Context) (models.MacroData, error) {
	if c.apiKey == "" {
		return models.DefaultMacro(), ErrMissingAPIKey
	}

	data := models.DefaultMacro()
	series := map[string]*float64{
		SeriesFedFunds:    &data.FedFundsRate,
		SeriesTreasury10Y: &data.Treasury10Y,
		SeriesVIX:         &data.VIX,
	}
	if c.DollarSeries != "" {
		series[c.DollarSeries] = &data.DXY
	}

	var (
		mu      sync.Mutex
		values  = make(map[string]float64, len(series))
		lastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	for id := range series {
		g.Go(func() error {
			v, err := c.latest(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = fmt.Errorf("%s: %w", id, err)
				return nil
			}
			values[id] = v
			return nil
		})
	}
	_ = g.Wait()

	if len(values) == 0 {
		return models.DefaultMacro(), fmt.Errorf("no macro series available: %w", lastErr)
	}

	for id, v := range values {
		*series[id] = v
	}
	data.RiskEnvironment = models.ClassifyRiskEnvironment(data.VIX, data.DXY)
	return data, nil
}

func (c *MacroClient) latest(ctx context.Context, seriesID string) (float64, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "10")

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/series/observations", params, &raw); err != nil {
		return 0, err
	}
	return ParseLatestObservation(raw)
}

// ParseLatestObservation returns the newest non-missing value from a
// descending observations payload. FRED marks missing values with ".".
func ParseLatestObservation(body []byte) (float64, error) {
	var obs fredObservations
	if err := json.Unmarshal(body, &obs); err != nil {
		return 0, fmt.Errorf("failed to decode observations: %w", err)
	}
	for _, o := range obs.Observations {
		if v, err := parseNumber(o.Value); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("observations: %w", ErrNotFound)
}
