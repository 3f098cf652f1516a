package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/models"
	"github.com/MustafAks/DexScreener/internal/utils/request"
)

const (
	DefaultBaseURL = "https://api.dexscreener.com"

	latestBoostsPath = "/token-boosts/latest/v1"
	tokenPairsPath   = "/latest/dex/tokens/"

	defaultPrice = "0.0"
)

var _ data.TokenSource = (*DexScreenerDataSource)(nil)

// StatusError is returned for any non-200 answer of the API.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

type DexScreenerDataSource struct {
	baseURL    string
	httpClient *resty.Client
}

// NewDexScreenerDataSource uses the shared client when httpClient is nil
// and the public API when baseURL is empty.
func NewDexScreenerDataSource(baseURL string, httpClient *resty.Client) *DexScreenerDataSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = request.Request
	}
	return &DexScreenerDataSource{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (d *DexScreenerDataSource) Name() string {
	return "dexscreener"
}

// FetchLatest implements data.TokenSource.
func (d *DexScreenerDataSource) FetchLatest(ctx context.Context) ([]models.TokenSummary, error) {
	body, err := d.get(ctx, d.baseURL+latestBoostsPath)
	if err != nil {
		return nil, err
	}

	var boosts []struct {
		URL          *string  `json:"url"`
		ChainID      *string  `json:"chainId"`
		TokenAddress *string  `json:"tokenAddress"`
		Amount       *float64 `json:"amount"`
		TotalAmount  *float64 `json:"totalAmount"`
		Description  *string  `json:"description"`
	}
	if err := json.Unmarshal(body, &boosts); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := make([]models.TokenSummary, 0, len(boosts))
	for _, b := range boosts {
		result = append(result, models.TokenSummary{
			ChainID:      stringOr(b.ChainID, models.Unknown),
			TokenAddress: stringOr(b.TokenAddress, ""),
			URL:          stringOr(b.URL, models.Unknown),
			Amount:       floatOr(b.Amount),
			TotalAmount:  floatOr(b.TotalAmount),
			Description:  stringOr(b.Description, ""),
		})
	}
	return result, nil
}

type pair struct {
	ChainID  *string `json:"chainId"`
	DexID    *string `json:"dexId"`
	URL      *string `json:"url"`
	PriceUSD *string `json:"priceUsd"`

	BaseToken *struct {
		Address *string `json:"address"`
		Name    *string `json:"name"`
		Symbol  *string `json:"symbol"`
	} `json:"baseToken"`

	Txns *struct {
		H24 *struct {
			Buys  *float64 `json:"buys"`
			Sells *float64 `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`

	Volume *struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`

	PriceChange *struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`

	Liquidity *struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`

	MarketCap     *float64 `json:"marketCap"`
	PairCreatedAt *float64 `json:"pairCreatedAt"`
}

// FetchDetail implements data.TokenSource. The first pair listed for the
// token is used; no pair at all is data.ErrDetailNotFound.
func (d *DexScreenerDataSource) FetchDetail(ctx context.Context, tokenAddress string) (*models.TokenSnapshot, error) {
	body, err := d.get(ctx, d.baseURL+tokenPairsPath+url.PathEscape(tokenAddress))
	if err != nil {
		return nil, err
	}

	var result struct {
		Pairs []pair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Pairs) == 0 {
		return nil, fmt.Errorf("%s: %w", tokenAddress, data.ErrDetailNotFound)
	}

	return toSnapshot(tokenAddress, &result.Pairs[0]), nil
}

func (d *DexScreenerDataSource) get(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), nil
}

// toSnapshot maps every absent field to its zero or Unknown default.
func toSnapshot(tokenAddress string, p *pair) *models.TokenSnapshot {
	s := &models.TokenSnapshot{
		TokenAddress: tokenAddress,
		ChainID:      stringOr(p.ChainID, models.Unknown),
		DexID:        stringOr(p.DexID, models.Unknown),
		Symbol:       models.Unknown,
		Name:         models.Unknown,
		PriceUSD:     price(p.PriceUSD),
		PairURL:      stringOr(p.URL, models.Unknown),
	}

	if p.BaseToken != nil {
		s.Symbol = stringOr(p.BaseToken.Symbol, models.Unknown)
		s.Name = stringOr(p.BaseToken.Name, models.Unknown)
	}
	if p.PriceChange != nil {
		s.PriceChange24h = floatOr(p.PriceChange.H24)
	}
	if p.Liquidity != nil {
		s.LiquidityUSD = floatOr(p.Liquidity.USD)
	}
	if p.Volume != nil {
		s.Volume24h = floatOr(p.Volume.H24)
	}
	if p.Txns != nil && p.Txns.H24 != nil {
		s.Txns24h = txnCount(p.Txns.H24.Buys, p.Txns.H24.Sells)
	}
	s.MarketCap = truncate(p.MarketCap)
	if p.PairCreatedAt != nil && *p.PairCreatedAt >= 1 {
		s.PairCreatedAt = time.UnixMilli(int64(*p.PairCreatedAt)).UTC()
	}

	return s
}

// price keeps the upstream text as is, "0.0" only when the field is absent.
func price(v *string) string {
	return stringOr(v, defaultPrice)
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// truncate drops the fraction of v. Negative values read as 0 and values
// past the int64 range saturate at math.MaxInt64.
func truncate(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return 0
	}
	if math.IsInf(*v, 1) {
		return math.MaxInt64
	}

	d := decimal.NewFromFloat(*v).Truncate(0)
	if d.GreaterThanOrEqual(maxInt64) {
		return math.MaxInt64
	}
	return d.IntPart()
}

func txnCount(buys, sells *float64) int {
	total, more := truncate(buys), truncate(sells)
	if total > math.MaxInt64-more {
		return math.MaxInt
	}
	total += more
	if total > math.MaxInt {
		return math.MaxInt
	}
	return int(total)
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

