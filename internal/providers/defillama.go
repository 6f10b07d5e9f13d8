package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
)

// flowThresholdPct is the daily TVL move that counts as a directional capital flow.
const flowThresholdPct = 2.0

var defiLlamaChains = map[string]string{
	"ethereum":         "Ethereum",
	"binancecoin":      "BSC",
	"solana":           "Solana",
	"tron":             "Tron",
	"avalanche-2":      "Avalanche",
	"polkadot":         "Polkadot",
	"cardano":          "Cardano",
	"near":             "Near",
	"sui":              "Sui",
	"aptos":            "Aptos",
	"arbitrum":         "Arbitrum",
	"matic-network":    "Polygon",
	"the-open-network": "TON",
	"bitcoin":          "Bitcoin",
}

// DefiLlamaChain returns the DeFiLlama chain name for a coin's native chain.
func DefiLlamaChain(coinID string) (string, error) {
	chain, ok := defiLlamaChains[coinID]
	if !ok {
		return "", fmt.Errorf("defillama chain for %s: %w", coinID, ErrUnsupported)
	}
	return chain, nil
}

// DefiLlamaClient reads chain TVL history and stablecoin supply.
type DefiLlamaClient struct {
	*Client
	StablecoinsURL string
}

func NewDefiLlamaClient(cfg config.DefiLlamaConfig) *DefiLlamaClient {
	return &DefiLlamaClient{
		Client:         NewClient("defillama", cfg.ProviderConfig),
		StablecoinsURL: strings.TrimSuffix(cfg.StablecoinsURL, "/"),
	}
}

type chainTVLPoint struct {
	Date int64   `json:"date"`
	TVL  float64 `json:"tvl"`
}

type stablecoinPoint struct {
	TotalCirculatingUSD struct {
		PeggedUSD float64 `json:"peggedUSD"`
	} `json:"totalCirculatingUSD"`
}

// GetOnChainData builds the on-chain summary for the coin's native chain. The
// stablecoin series is optional; a failure there leaves its change at 0.
func (c *DefiLlamaClient) GetOnChainData(ctx context.Context, coinID string) (*models.OnChainData, error) {
	chain, err := DefiLlamaChain(coinID)
	if err != nil {
		return nil, err
	}

	var tvlRaw json.RawMessage
	if err := c.getJSON(ctx, "/v2/historicalChainTvl/"+url.PathEscape(chain), nil, &tvlRaw); err != nil {
		return nil, err
	}
	data, err := ParseChainTVL(tvlRaw)
	if err != nil {
		return nil, err
	}
	data.Chain = chain

	if c.StablecoinsURL != "" {
		var stableRaw json.RawMessage
		if err := c.getJSONFrom(ctx, c.StablecoinsURL, "/stablecoincharts/"+url.PathEscape(chain), nil, &stableRaw); err == nil {
			if change, perr := ParseStablecoinChange(stableRaw); perr == nil {
				data.StablecoinChange7d = change
			}
		}
	}
	return data, nil
}

// ParseChainTVL derives current TVL, 1d and 7d changes and the capital flow from daily TVL points.
func ParseChainTVL(body []byte) (*models.OnChainData, error) {
	var points []chainTVLPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("failed to decode chain tvl: %w", err)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("chain tvl history has %d points", len(points))
	}

	n := len(points)
	latest := points[n-1].TVL
	data := &models.OnChainData{
		TVL:         latest,
		TVLChange1d: percentChange(points[n-2].TVL, latest),
		CapitalFlow: models.FlowNeutral,
	}
	if n >= 8 {
		data.TVLChange7d = percentChange(points[n-8].TVL, latest)
	}
	switch {
	case data.TVLChange1d > flowThresholdPct:
		data.CapitalFlow = models.FlowInflow
	case data.TVLChange1d < -flowThresholdPct:
		data.CapitalFlow = models.FlowOutflow
	}
	return data, nil
}

// ParseStablecoinChange returns the 7 day percent change in circulating USD-pegged supply.
func ParseStablecoinChange(body []byte) (float64, error) {
	var points []stablecoinPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return 0, fmt.Errorf("failed to decode stablecoin chart: %w", err)
	}
	if len(points) < 8 {
		return 0, fmt.Errorf("stablecoin chart has %d points", len(points))
	}
	n := len(points)
	return percentChange(points[n-8].TotalCirculatingUSD.PeggedUSD, points[n-1].TotalCirculatingUSD.PeggedUSD), nil
}
