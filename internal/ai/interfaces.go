package ai

import (
	"context"

	"github.com/MustafAks/DexScreener/internal/models"
)

// Analyzer defines methods for AI analysis
type Analyzer interface {
	// AssessToken returns a short risk note about a gem candidate
	AssessToken(ctx context.Context, snapshot *models.TokenSnapshot, score int) (*RiskNote, error)
}

// RiskNote 风险评估结果
type RiskNote struct {
	RiskLevel string `json:"risk_level"` // low, medium, high
	Note      string `json:"note"`
}

// String renders the note as a single alert line.
func (n *RiskNote) String() string {
	if n == nil || n.Note == "" {
		return ""
	}
	if n.RiskLevel == "" {
		return n.Note
	}
	return n.RiskLevel + " risk: " + n.Note
}
