package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/repository"
)

type key struct {
	channel   string
	messageID string
}

// Store is a process-local NotificationStore. Contents are lost on restart.
type Store struct {
	mu     sync.RWMutex
	items  map[key]*domain.PostedNotification
	logger *zap.Logger
}

var _ repository.NotificationStore = (*Store)(nil)

func New(logger *zap.Logger) *Store {
	return &Store{
		items:  make(map[key]*domain.PostedNotification),
		logger: logger,
	}
}

func (s *Store) Save(ctx context.Context, n *domain.PostedNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := key{channel: n.Channel, messageID: n.MessageID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[k]; ok {
		s.logger.Warn(repository.ErrNotificationExists.Error(),
			zap.String("channel", n.Channel), zap.String("message_id", n.MessageID))
		return fmt.Errorf("%w: %s/%s", repository.ErrNotificationExists, n.Channel, n.MessageID)
	}

	stored := *n
	s.items[k] = &stored

	s.logger.Debug("successfully stored notification",
		zap.String("id", n.ID), zap.String("channel", n.Channel), zap.String("message_id", n.MessageID))
	return nil
}

func (s *Store) Get(ctx context.Context, channel, messageID string) (*domain.PostedNotification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.items[key{channel: channel, messageID: messageID}]
	if !ok {
		return nil, repository.ErrNotificationNotFound
	}

	out := *n
	return &out, nil
}

func (s *Store) MarkClaimed(ctx context.Context, channel, messageID, reactor string, at time.Time) (*domain.PostedNotification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := key{channel: channel, messageID: messageID}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[k]
	if !ok {
		n = &domain.PostedNotification{Channel: channel, MessageID: messageID}
		s.items[k] = n
	}

	if n.Claimed {
		return nil, fmt.Errorf("%w: claimed by %s", repository.ErrAlreadyClaimed, n.ClaimedBy)
	}

	claimedAt := at
	n.Claimed = true
	n.ClaimedBy = reactor
	n.ClaimedAt = &claimedAt

	s.logger.Info("successfully marked notification claimed",
		zap.String("channel", channel), zap.String("message_id", messageID), zap.String("reactor", reactor))

	out := *n
	return &out, nil
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[key]*domain.PostedNotification)
}
