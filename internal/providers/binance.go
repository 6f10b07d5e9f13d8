package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
)

var binanceBaseAssets = map[string]string{
	"bitcoin":          "BTC",
	"ethereum":         "ETH",
	"binancecoin":      "BNB",
	"solana":           "SOL",
	"ripple":           "XRP",
	"cardano":          "ADA",
	"dogecoin":         "DOGE",
	"tron":             "TRX",
	"polkadot":         "DOT",
	"avalanche-2":      "AVAX",
	"chainlink":        "LINK",
	"litecoin":         "LTC",
	"shiba-inu":        "SHIB",
	"uniswap":          "UNI",
	"near":             "NEAR",
	"sui":              "SUI",
	"the-open-network": "TON",
	"matic-network":    "MATIC",
	"aptos":            "APT",
	"arbitrum":         "ARB",
}

// BinanceSymbol maps a coin id to its USDT spot pair. A provider-reported
// ticker symbol is used when the id has no explicit mapping.
func BinanceSymbol(coinID, tickerSymbol string) (string, error) {
	if base, ok := binanceBaseAssets[coinID]; ok {
		return base + "USDT", nil
	}
	if tickerSymbol != "" {
		return strings.ToUpper(tickerSymbol) + "USDT", nil
	}
	return "", fmt.Errorf("binance symbol for %s: %w", coinID, ErrUnsupported)
}

// BinanceKlinesClient reads spot candles.
type BinanceKlinesClient struct {
	*Client
}

func NewBinanceKlinesClient(cfg config.ProviderConfig) *BinanceKlinesClient {
	return &BinanceKlinesClient{Client: NewClient("binance_klines", cfg)}
}

// GetKlines returns up to limit candles for symbol at the given interval, oldest first.
func (c *BinanceKlinesClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/v3/klines", params, &raw); err != nil {
		return nil, err
	}
	return ParseKlines(raw)
}

// ParseKlines decodes the array-of-arrays kline payload.
func ParseKlines(body []byte) ([]models.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode klines: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline %d has %d fields", i, len(row))
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}
		values := make([]float64, 5)
		for j := range values {
			var s string
			if err := json.Unmarshal(row[j+1], &s); err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
			v, err := parseNumber(s)
			if err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
			values[j] = v
		}
		candles = append(candles, models.Candle{
			Timestamp: msToTime(openTime),
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}
	return candles, nil
}

// BinanceFuturesClient reads funding and open interest for the BTC and ETH perpetuals.
type BinanceFuturesClient struct {
	*Client
}

func NewBinanceFuturesClient(cfg config.ProviderConfig) *BinanceFuturesClient {
	return &BinanceFuturesClient{Client: NewClient("binance_futures", cfg)}
}

type premiumIndex struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
}

type openInterest struct {
	Symbol       string `json:"symbol"`
	OpenInterest string `json:"openInterest"`
}

type perpetualSnapshot struct {
	fundingPct  float64
	notionalUSD float64
}

// GetDerivatives builds the derivatives summary. Funding rates are reported in percent
// and open interest as USD notional. No public liquidation feed exists, so that stays 0.
func (c *BinanceFuturesClient) GetDerivatives(ctx context.Context) (models.DerivativesData, error) {
	var btc, eth perpetualSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		btc, err = c.perpetual(gctx, "BTCUSDT")
		return err
	})
	g.Go(func() error {
		var err error
		eth, err = c.perpetual(gctx, "ETHUSDT")
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DefaultDerivatives(), err
	}

	return models.DerivativesData{
		BTCOpenInterest:  btc.notionalUSD,
		ETHOpenInterest:  eth.notionalUSD,
		BTCFundingRate:   btc.fundingPct,
		ETHFundingRate:   eth.fundingPct,
		FundingHeatLevel: models.RemapFundingHeat(models.ClassifyFunding(btc.fundingPct)),
	}, nil
}

func (c *BinanceFuturesClient) perpetual(ctx context.Context, symbol string) (perpetualSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var premium premiumIndex
	if err := c.getJSON(ctx, "/fapi/v1/premiumIndex", params, &premium); err != nil {
		return perpetualSnapshot{}, err
	}
	var oi openInterest
	if err := c.getJSON(ctx, "/fapi/v1/openInterest", params, &oi); err != nil {
		return perpetualSnapshot{}, err
	}
	return parsePerpetual(premium, oi)
}

// parsePerpetual converts the string-encoded futures fields.
func parsePerpetual(premium premiumIndex, oi openInterest) (perpetualSnapshot, error) {
	rate, err := parseNumber(premium.LastFundingRate)
	if err != nil {
		return perpetualSnapshot{}, fmt.Errorf("%s funding rate: %w", premium.Symbol, err)
	}
	mark, err := parseNumber(premium.MarkPrice)
	if err != nil {
		return perpetualSnapshot{}, fmt.Errorf("%s mark price: %w", premium.Symbol, err)
	}
	contracts, err := parseNumber(oi.OpenInterest)
	if err != nil {
		return perpetualSnapshot{}, fmt.Errorf("%s open interest: %w", oi.Symbol, err)
	}
	return perpetualSnapshot{fundingPct: rate * 100, notionalUSD: contracts * mark}, nil
}
