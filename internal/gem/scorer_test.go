package gem

import (
	"testing"
	"time"

	"github.com/MustafAks/DexScreener/internal/models"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tokenA is the reference snapshot: six of the eight predicates hold.
func tokenA() *models.TokenSnapshot {
	return &models.TokenSnapshot{
		TokenAddress:   "TokenA",
		PriceUSD:       "0.000123",
		PriceChange24h: 2.5,
		LiquidityUSD:   10000,
		Volume24h:      25000,
		MarketCap:      20000,
		PairCreatedAt:  testNow.Add(-24 * time.Hour),
		Txns24h:        60,
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	tests := []struct {
		name     string
		snapshot *models.TokenSnapshot
		avg      models.RunningAverages
		want     int
	}{
		{
			name:     "zero snapshot without history",
			snapshot: &models.TokenSnapshot{},
			want:     0,
		},
		{
			name: "every predicate false",
			snapshot: &models.TokenSnapshot{
				PriceChange24h: -3,
				LiquidityUSD:   5000,
				Volume24h:      100,
				MarketCap:      0,
				PairCreatedAt:  testNow.Add(-60 * 24 * time.Hour),
				Txns24h:        50,
			},
			avg:  models.RunningAverages{AvgLiquidity: 5000, AvgVolume: 50},
			want: 0,
		},
		{
			name: "every predicate true",
			snapshot: &models.TokenSnapshot{
				PriceChange24h: 1,
				LiquidityUSD:   20000,
				Volume24h:      30000,
				MarketCap:      10000,
				PairCreatedAt:  testNow.Add(-time.Hour),
				Txns24h:        100,
			},
			avg:  models.RunningAverages{AvgMarketCap: 1, AvgLiquidity: 5000, AvgVolume: 10000},
			want: 11,
		},
		{
			name:     "token A without history",
			snapshot: tokenA(),
			want:     8,
		},
		{
			name:     "token A above both averages",
			snapshot: tokenA(),
			avg:      models.RunningAverages{AvgLiquidity: 4000, AvgVolume: 10000},
			want:     11,
		},
		{
			name:     "token A above liquidity average only rounds up",
			snapshot: tokenA(),
			avg:      models.RunningAverages{AvgLiquidity: 4000, AvgVolume: 20000},
			want:     10, // 9.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.snapshot, tt.avg, testNow)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScorer_Boundaries(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	tests := []struct {
		name      string
		mutate    func(s *models.TokenSnapshot)
		avg       models.RunningAverages
		predicate Predicate
		want      bool
	}{
		{"liquidity exactly 5000", func(s *models.TokenSnapshot) { s.LiquidityUSD = 5000 }, models.RunningAverages{}, PredicateLiquidityRange, false},
		{"liquidity exactly 50000", func(s *models.TokenSnapshot) { s.LiquidityUSD = 50000 }, models.RunningAverages{}, PredicateLiquidityRange, false},
		{"liquidity just inside", func(s *models.TokenSnapshot) { s.LiquidityUSD = 5000.01 }, models.RunningAverages{}, PredicateLiquidityRange, true},
		{"market cap exactly 50000", func(s *models.TokenSnapshot) { s.MarketCap = 50000 }, models.RunningAverages{}, PredicateLowMarketCap, false},
		{"volume equal to market cap", func(s *models.TokenSnapshot) { s.Volume24h = 20000 }, models.RunningAverages{}, PredicateVolumeOverMarketCap, false},
		{"volume over zero market cap", func(s *models.TokenSnapshot) { s.MarketCap = 0 }, models.RunningAverages{}, PredicateVolumeOverMarketCap, false},
		{"exactly 50 txns", func(s *models.TokenSnapshot) { s.Txns24h = 50 }, models.RunningAverages{}, PredicateHighTxns, false},
		{"exactly 30 days old", func(s *models.TokenSnapshot) { s.PairCreatedAt = testNow.Add(-newTokenMaxAge) }, models.RunningAverages{}, PredicateNewToken, false},
		{"unknown creation time", func(s *models.TokenSnapshot) { s.PairCreatedAt = time.Time{} }, models.RunningAverages{}, PredicateNewToken, false},
		{"zero price change", func(s *models.TokenSnapshot) { s.PriceChange24h = 0 }, models.RunningAverages{}, PredicatePriceChange, false},
		{"volume exactly twice average", func(s *models.TokenSnapshot) {}, models.RunningAverages{AvgVolume: 12500}, PredicateVolumeAboveAvg, false},
		{"liquidity exactly twice average", func(s *models.TokenSnapshot) {}, models.RunningAverages{AvgLiquidity: 5000}, PredicateLiquidityAboveAvg, false},
		{"zero averages disable comparison", func(s *models.TokenSnapshot) {}, models.RunningAverages{}, PredicateVolumeAboveAvg, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tokenA()
			tt.mutate(s)

			eval := scorer.Evaluate(s, tt.avg, testNow)
			if tt.want {
				assert.Contains(t, eval.Matched, tt.predicate)
			} else {
				assert.NotContains(t, eval.Matched, tt.predicate)
			}
		})
	}
}

func TestScorer_Evaluate(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	eval := scorer.Evaluate(tokenA(), models.RunningAverages{}, testNow)

	assert.Equal(t, []Predicate{
		PredicatePriceChange,
		PredicateLiquidityRange,
		PredicateLowMarketCap,
		PredicateVolumeOverMarketCap,
		PredicateNewToken,
		PredicateHighTxns,
	}, eval.Matched)
	assert.Equal(t, 8.0, eval.Raw)
	assert.Equal(t, 8, eval.Score)
}

func TestScorer_Idempotent(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	s := tokenA()
	avg := models.RunningAverages{AvgLiquidity: 4000, AvgVolume: 5000}

	first := scorer.Score(s, avg, testNow)
	second := scorer.Score(s, avg, testNow)

	assert.Equal(t, first, second)
	assert.Equal(t, tokenA(), s, "scoring must not modify the snapshot")
}

func TestScorer_CustomWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		want    int
	}{
		{"half rounds up", Weights{PredicateHighTxns: 0.5}, 1},
		{"below half rounds down", Weights{PredicateHighTxns: 0.49}, 0},
		{"two and a half", Weights{PredicateHighTxns: 1.25, PredicateNewToken: 1.25}, 3},
		{"missing predicates weigh zero", Weights{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewScorer(tt.weights)
			assert.Equal(t, tt.want, scorer.Score(tokenA(), models.RunningAverages{}, testNow))
		})
	}
}

func TestNewScorer_CopiesWeights(t *testing.T) {
	w := DefaultWeights()
	scorer := NewScorer(w)

	w[PredicateLowMarketCap] = 100

	assert.Equal(t, 8, scorer.Score(tokenA(), models.RunningAverages{}, testNow))
}
