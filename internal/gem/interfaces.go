package gem

import (
	"time"

	"github.com/MustafAks/DexScreener/internal/models"
)

// Predicate names one weighted condition of the gem score.
type Predicate string

const (
	PredicatePriceChange         Predicate = "price_change"
	PredicateLiquidityRange      Predicate = "liquidity_range"
	PredicateLowMarketCap        Predicate = "low_market_cap"
	PredicateVolumeOverMarketCap Predicate = "volume_over_market_cap"
	PredicateNewToken            Predicate = "new_token"
	PredicateHighTxns            Predicate = "high_txns"
	PredicateLiquidityAboveAvg   Predicate = "liquidity_above_avg"
	PredicateVolumeAboveAvg      Predicate = "volume_above_avg"
)

// Predicates lists every predicate in evaluation order.
var Predicates = []Predicate{
	PredicatePriceChange,
	PredicateLiquidityRange,
	PredicateLowMarketCap,
	PredicateVolumeOverMarketCap,
	PredicateNewToken,
	PredicateHighTxns,
	PredicateLiquidityAboveAvg,
	PredicateVolumeAboveAvg,
}

// Weights 评分权重表
type Weights map[Predicate]float64

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		PredicatePriceChange:         1.0,
		PredicateLiquidityRange:      1.0,
		PredicateLowMarketCap:        2.0,
		PredicateVolumeOverMarketCap: 2.0,
		PredicateNewToken:            1.0,
		PredicateHighTxns:            1.0,
		PredicateLiquidityAboveAvg:   1.5,
		PredicateVolumeAboveAvg:      1.5,
	}
}

// Reason explains a notification decision.
type Reason string

const (
	ReasonBelowThreshold  Reason = "below_threshold"
	ReasonFirstSighting   Reason = "first_sighting"
	ReasonCooldownExpired Reason = "cooldown_expired"
	ReasonMarketCapJump   Reason = "market_cap_jump"
	ReasonSuppressed      Reason = "suppressed"
)

// Evaluation 评分明细
type Evaluation struct {
	Matched []Predicate `json:"matched"`
	Raw     float64     `json:"raw"`
	Score   int         `json:"score"`
}

// Decision 告警决策结果
type Decision struct {
	Notify bool
	// Record is the record to persist when Notify is true; otherwise the
	// prior record, untouched (nil for an unseen token).
	Record *models.NotificationRecord
	Reason Reason
}

// Policy holds the repeat-alert parameters.
type Policy struct {
	Threshold           int           `json:"threshold"`
	Cooldown            time.Duration `json:"cooldown"`
	MarketCapMultiplier float64       `json:"market_cap_multiplier"`
}
