package gem

import (
	"math"
	"time"

	"github.com/MustafAks/DexScreener/internal/models"
)

const (
	minLiquidityUSD    = 5000.0
	maxLiquidityUSD    = 50000.0
	maxLowMarketCap    = 50000
	minTxns24h         = 50
	newTokenMaxAge     = 30 * 24 * time.Hour
	aboveAvgMultiplier = 2.0
)

// Scorer computes gem scores from a weight table.
type Scorer struct {
	weights Weights
}

// NewScorer copies w so later changes to the caller's map have no effect.
// Predicates missing from w weigh zero.
func NewScorer(w Weights) *Scorer {
	weights := make(Weights, len(w))
	for p, v := range w {
		weights[p] = v
	}
	return &Scorer{weights: weights}
}

// Score returns the rounded gem score of s.
func (sc *Scorer) Score(s *models.TokenSnapshot, avg models.RunningAverages, now time.Time) int {
	return sc.Evaluate(s, avg, now).Score
}

// Evaluate scores s and reports which predicates held.
func (sc *Scorer) Evaluate(s *models.TokenSnapshot, avg models.RunningAverages, now time.Time) Evaluation {
	eval := Evaluation{Matched: make([]Predicate, 0, len(Predicates))}

	for _, p := range Predicates {
		if !holds(p, s, avg, now) {
			continue
		}
		eval.Matched = append(eval.Matched, p)
		eval.Raw += sc.weights[p]
	}

	eval.Score = roundHalfUp(eval.Raw)
	return eval
}

func holds(p Predicate, s *models.TokenSnapshot, avg models.RunningAverages, now time.Time) bool {
	switch p {
	case PredicatePriceChange:
		return s.PriceChange24h > 0
	case PredicateLiquidityRange:
		return s.LiquidityUSD > minLiquidityUSD && s.LiquidityUSD < maxLiquidityUSD
	case PredicateLowMarketCap:
		return s.MarketCap > 0 && s.MarketCap < maxLowMarketCap
	case PredicateVolumeOverMarketCap:
		return s.MarketCap > 0 && s.Volume24h > float64(s.MarketCap)
	case PredicateNewToken:
		age, ok := s.Age(now)
		return ok && age < newTokenMaxAge
	case PredicateHighTxns:
		return s.Txns24h > minTxns24h
	case PredicateLiquidityAboveAvg:
		// no history yet disables the comparison
		return avg.AvgLiquidity > 0 && s.LiquidityUSD > avg.AvgLiquidity*aboveAvgMultiplier
	case PredicateVolumeAboveAvg:
		return avg.AvgVolume > 0 && s.Volume24h > avg.AvgVolume*aboveAvgMultiplier
	default:
		return false
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
