package notify

import (
	"context"

	"github.com/MustafAks/DexScreener/internal/gem"
	"github.com/MustafAks/DexScreener/internal/models"
)

// Notifier 负责把告警投递到某个频道
type Notifier interface {
	// Send delivers message to channel; channel meaning is up to the transport
	// (a chat id, a topic).
	Send(ctx context.Context, channel, message string) error
}

// Alert 一次待发送的宝石代币告警
type Alert struct {
	Snapshot  *models.TokenSnapshot
	Score     int
	Threshold int
	Matched   []gem.Predicate
	Reason    gem.Reason
	Note      string // optional one-line AI note
}
