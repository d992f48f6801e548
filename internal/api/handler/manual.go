package handler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/intake"
)

// submitManual parses "URL Title" issued by requester in channel and relays it.
func submitManual(ctx context.Context, svc ReviewService, args, requester, channel string) (*domain.PostedNotification, error) {
	url, title, err := intake.ParseCommand(args)
	if err != nil {
		return nil, err
	}

	name := svc.ResolveDisplayName(ctx, requester)
	return svc.CreateReviewRequest(ctx, intake.Manual(url, title, requester, name, channel))
}

// replyUsage posts a format hint into channel when err is a usage error.
func replyUsage(ctx context.Context, svc ReviewService, logger *zap.Logger, channel, format string, err error) {
	if !errors.Is(err, domain.ErrValidation) {
		return
	}

	text := fmt.Sprintf("Error: Please use the format `%s`", format)
	if perr := svc.PostNotice(ctx, channel, text); perr != nil {
		logger.Warn("replyUsage: failed to post usage hint", zap.String("channel", channel), zap.Error(perr))
	}
}
