package models

import "time"

// Unknown is the sentinel used for text fields the upstream API left out.
const Unknown = "unknown"

// TokenSummary 最新推广代币列表中的一项
type TokenSummary struct {
	ChainID      string  `json:"chain_id"`
	TokenAddress string  `json:"token_address"`
	URL          string  `json:"url"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"total_amount"`
	Description  string  `json:"description"`
}

// TokenSnapshot 某一时刻观察到的代币市场数据
type TokenSnapshot struct {
	TokenAddress   string    `json:"token_address"`
	ChainID        string    `json:"chain_id"`
	DexID          string    `json:"dex_id"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	PriceUSD       string    `json:"price_usd"` // kept verbatim
	PriceChange24h float64   `json:"price_change_24h"`
	LiquidityUSD   float64   `json:"liquidity_usd"`
	Volume24h      float64   `json:"volume_24h"`
	MarketCap      int64     `json:"market_cap"`
	PairURL        string    `json:"pair_url"`
	PairCreatedAt  time.Time `json:"pair_created_at"` // zero when unknown
	Txns24h        int       `json:"txns_24h"`
}

// Age returns how long ago the pair was created. ok is false when the
// creation time is unknown.
func (s *TokenSnapshot) Age(now time.Time) (age time.Duration, ok bool) {
	if s.PairCreatedAt.IsZero() {
		return 0, false
	}
	return now.Sub(s.PairCreatedAt), true
}

// RunningAverages 历史指标的算术平均值
type RunningAverages struct {
	AvgMarketCap float64 `json:"avg_market_cap"`
	AvgLiquidity float64 `json:"avg_liquidity"`
	AvgVolume    float64 `json:"avg_volume"`
}

// NotificationRecord 代币最近一次告警的记录
type NotificationRecord struct {
	TokenAddress          string    `json:"token_address"`
	LastNotifiedAt        time.Time `json:"last_notified_at"`
	InitialMarketCap      int64     `json:"initial_market_cap"`
	LastNotifiedMarketCap int64     `json:"last_notified_market_cap"`
}
