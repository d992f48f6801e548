package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationExists   = errors.New("notification already exists")
	ErrAlreadyClaimed       = errors.New("notification already claimed")
)

// NotificationStore keeps posted notifications keyed by (channel, message id).
type NotificationStore interface {
	Save(ctx context.Context, n *domain.PostedNotification) error
	Get(ctx context.Context, channel, messageID string) (*domain.PostedNotification, error)
	// MarkClaimed flips a notification to claimed exactly once. Unknown handles are
	// recorded as claimed so later deliveries are still rejected.
	MarkClaimed(ctx context.Context, channel, messageID, reactor string, at time.Time) (*domain.PostedNotification, error)
	Close()
}
