package handler

import (
	"context"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

type ReviewService interface {
	CreateReviewRequest(ctx context.Context, req domain.ReviewRequest) (*domain.PostedNotification, error)
	HandleClaimEvent(ctx context.Context, ev domain.ClaimEvent) domain.ClaimResult
	ListTeamMembers() []string
	RecentlySelected() []string
	Primary() domain.ReviewerIdentity
	PostNotice(ctx context.Context, channel, text string) error
	ResolveDisplayName(ctx context.Context, handle string) string
}
