package gem

import (
	"time"

	"github.com/MustafAks/DexScreener/internal/models"
)

// IsGem reports whether score reaches the alert threshold.
func (p Policy) IsGem(score int) bool {
	return score >= p.Threshold
}

// Decide returns whether tokenAddress should be alerted now and the record
// to persist. prior is nil when the token has never been alerted. Decide
// never modifies prior.
func (p Policy) Decide(tokenAddress string, s *models.TokenSnapshot, score int, prior *models.NotificationRecord, now time.Time) Decision {
	if !p.IsGem(score) {
		return Decision{Record: prior, Reason: ReasonBelowThreshold}
	}

	if prior == nil {
		return Decision{
			Notify: true,
			Record: &models.NotificationRecord{
				TokenAddress:          tokenAddress,
				LastNotifiedAt:        now,
				InitialMarketCap:      s.MarketCap,
				LastNotifiedMarketCap: s.MarketCap,
			},
			Reason: ReasonFirstSighting,
		}
	}

	var reason Reason
	switch {
	case p.marketCapJumped(prior, s.MarketCap):
		reason = ReasonMarketCapJump
	case now.Sub(prior.LastNotifiedAt) >= p.Cooldown:
		reason = ReasonCooldownExpired
	default:
		return Decision{Record: prior, Reason: ReasonSuppressed}
	}

	next := *prior
	next.LastNotifiedAt = now
	next.LastNotifiedMarketCap = s.MarketCap
	return Decision{Notify: true, Record: &next, Reason: reason}
}

func (p Policy) marketCapJumped(prior *models.NotificationRecord, marketCap int64) bool {
	if prior.LastNotifiedMarketCap <= 0 {
		return false
	}
	return float64(marketCap) > float64(prior.LastNotifiedMarketCap)*p.MarketCapMultiplier
}
