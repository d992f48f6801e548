// Package claim moves posted review notifications from posted to claimed.
package claim

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/format"
	"github.com/SilverCrocus/slack-pr-bot/internal/gateway"
	"github.com/SilverCrocus/slack-pr-bot/internal/repository"
)

type Options struct {
	// NotifyPrimary sends the primary reviewer a direct message after each claim.
	NotifyPrimary bool
	// RestrictToPanel only accepts claims from handles mentioned in the notification.
	RestrictToPanel bool
}

type Tracker struct {
	gw        gateway.Gateway
	store     repository.NotificationStore
	formatter *format.Formatter
	primary   domain.ReviewerIdentity
	opts      Options
	logger    *zap.Logger
	locks     *keyedMutex
	now       func() time.Time
}

func New(
	gw gateway.Gateway,
	store repository.NotificationStore,
	formatter *format.Formatter,
	primary domain.ReviewerIdentity,
	opts Options,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		gw:        gw,
		store:     store,
		formatter: formatter,
		primary:   primary,
		opts:      opts,
		logger:    logger,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// Handle applies ev. Claims on the same message are serialized; the first one wins and
// later deliveries come back ignored. Failures are not retried here.
func (t *Tracker) Handle(ctx context.Context, ev domain.ClaimEvent) domain.ClaimResult {
	if strings.Trim(ev.Emoji, ":") != t.formatter.ClaimEmoji() {
		return domain.Ignored(domain.ReasonNotClaimEmoji)
	}

	if ev.ReactorHandle == "" || ev.Channel == "" || ev.MessageID == "" {
		t.logger.Warn("Claim: incomplete event", zap.Any("event", ev))
		return domain.Failed(domain.ReasonMissingData)
	}

	unlock := t.locks.Lock(ev.Channel + "/" + ev.MessageID)
	defer unlock()

	log := t.logger.With(
		zap.String("channel", ev.Channel),
		zap.String("message_id", ev.MessageID),
		zap.String("reactor", ev.ReactorHandle),
	)

	// A stored record is authoritative; the message text is only consulted for
	// notifications the store does not know about.
	n, err := t.store.Get(ctx, ev.Channel, ev.MessageID)
	switch {
	case err == nil && n.Claimed:
		log.Debug("Claim: notification already claimed", zap.String("claimed_by", n.ClaimedBy))
		return domain.Ignored(domain.ReasonAlreadyClaimed)
	case err != nil:
		if !errors.Is(err, repository.ErrNotificationNotFound) {
			log.Warn("Claim: notification lookup failed, falling back to message text", zap.Error(err))
		}
		n = nil
	}

	text, err := t.gw.FetchMessage(ctx, ev.Channel, ev.MessageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("Claim: original message not found", zap.Error(err))
			return domain.Failed(domain.ReasonMessageNotFound)
		}
		log.Error("Claim: failed to fetch original message", zap.Error(err))
		return domain.Failed(domain.ReasonGatewayFailure)
	}

	if !format.IsReviewRequest(text) {
		return domain.Ignored(domain.ReasonNotReviewPost)
	}

	if n == nil && format.IsClaimed(text) {
		return domain.Ignored(domain.ReasonAlreadyClaimed)
	}

	if t.opts.RestrictToPanel && !onPanel(n, text, ev.ReactorHandle) {
		return domain.Ignored(domain.ReasonNotOnPanel)
	}

	name := t.gw.ResolveDisplayName(ctx, ev.ReactorHandle)

	err = t.gw.UpdateMessage(ctx, ev.Channel, ev.MessageID, t.formatter.Claimed(text, ev.ReactorHandle, name))
	if err != nil {
		log.Error("Claim: failed to update message", zap.Error(err))
		return domain.Failed(domain.ReasonGatewayFailure)
	}

	_, err = t.store.MarkClaimed(ctx, ev.Channel, ev.MessageID, ev.ReactorHandle, t.now())
	if err != nil {
		log.Error("Claim: message updated but claim not recorded", zap.Error(err))
	}

	if t.opts.NotifyPrimary {
		notice := t.formatter.ClaimNotice(ev.ReactorHandle, name, ev.Channel, ev.MessageID)
		if err = t.gw.SendDirect(ctx, t.primary.Handle, notice); err != nil {
			log.Warn("Claim: failed to notify primary reviewer", zap.Error(err))
		}
	}

	log.Info("Claim: review claimed", zap.String("reviewer", name))
	return domain.ClaimResult{Status: domain.ClaimSuccess, Reviewer: name}
}

// onPanel compares against the stored assignment when there is one, otherwise against the
// mentions in the message text.
func onPanel(n *domain.PostedNotification, text, handle string) bool {
	if n != nil && n.Assignment.Primary.Handle != "" {
		return slices.Contains(n.Assignment.Handles(), handle)
	}

	return format.MentionsReviewer(text, handle)
}
