// Package relay exposes the review relay operations to the inbound glue: creating
// review requests, applying claims and listing the team.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/claim"
	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/format"
	"github.com/SilverCrocus/slack-pr-bot/internal/gateway"
	"github.com/SilverCrocus/slack-pr-bot/internal/repository"
	"github.com/SilverCrocus/slack-pr-bot/internal/selector"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
)

type Config struct {
	Channel             string        `yaml:"channel" env:"PR_REVIEW_CHANNEL" env-default:"model-pr-review"`
	ClaimEmoji          string        `yaml:"claim_emoji" env:"CLAIM_EMOJI" env-default:"white_check_mark"`
	PanelSize           int           `yaml:"panel_size" env:"PANEL_SIZE" env-default:"2"`
	NotifyPrimary       bool          `yaml:"notify_primary" env:"NOTIFY_PRIMARY_ON_CLAIM" env-default:"true"`
	RestrictToPanel     bool          `yaml:"restrict_to_panel" env:"RESTRICT_CLAIMS_TO_PANEL" env-default:"false"`
	AllowAuthorFallback bool          `yaml:"allow_author_fallback" env:"ALLOW_AUTHOR_FALLBACK" env-default:"false"`
	GatewayTimeout      time.Duration `yaml:"gateway_timeout" env:"GATEWAY_TIMEOUT" env-default:"10s"`
}

type Service struct {
	cfg       Config
	dir       *team.Directory
	selector  *selector.Selector
	formatter *format.Formatter
	tracker   *claim.Tracker
	gw        gateway.Gateway
	store     repository.NotificationStore
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*options)

type options struct {
	rnd *rand.Rand
}

// WithRand seeds reviewer selection, for tests.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rnd = r
	}
}

func New(
	cfg Config,
	dir *team.Directory,
	gw gateway.Gateway,
	store repository.NotificationStore,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	selOpts := []selector.Option{
		selector.WithPanelSize(cfg.PanelSize),
		selector.WithAuthorFallback(cfg.AllowAuthorFallback),
	}
	if o.rnd != nil {
		selOpts = append(selOpts, selector.WithRand(o.rnd))
	}

	formatter := format.New(cfg.ClaimEmoji)
	trackerOpts := claim.Options{NotifyPrimary: cfg.NotifyPrimary, RestrictToPanel: cfg.RestrictToPanel}

	return &Service{
		cfg:       cfg,
		dir:       dir,
		selector:  selector.New(dir, logger.Named("selector"), selOpts...),
		formatter: formatter,
		tracker:   claim.New(gw, store, formatter, dir.Primary(), trackerOpts, logger.Named("claim")),
		gw:        gw,
		store:     store,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateReviewRequest selects a panel for req, posts the notification and records it.
// Validation failures wrap domain.ErrValidation and never reach the gateway.
func (s *Service) CreateReviewRequest(ctx context.Context, req domain.ReviewRequest) (*domain.PostedNotification, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if req.Channel == "" {
		req.Channel = s.cfg.Channel
	}

	if err := s.validate.Struct(req); err != nil {
		s.logger.Info("CreateReviewRequest: rejected request", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, describe(err))
	}

	// The rotation only moves for notifications that were actually delivered.
	assignment, release := s.selector.Reserve(req)
	text := s.formatter.ReviewRequest(assignment)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ref, err := s.gw.PostMessage(ctx, req.Channel, text)
	if err != nil {
		s.logger.Error("CreateReviewRequest: failed to send notification",
			zap.String("channel", req.Channel), zap.String("url", req.URL), zap.Error(err))
		release()
		if !errors.Is(err, domain.ErrGateway) {
			err = fmt.Errorf("%w: %w", domain.ErrGateway, err)
		}
		return nil, err
	}

	n := &domain.PostedNotification{
		ID:         uuid.NewString(),
		Channel:    ref.Channel,
		MessageID:  ref.MessageID,
		Assignment: assignment,
		PostedAt:   s.now(),
	}
	if err = s.store.Save(ctx, n); err != nil {
		s.logger.Warn("CreateReviewRequest: notification posted but not tracked", zap.Error(err))
	}

	s.logger.Info("CreateReviewRequest: review notification sent",
		zap.String("id", n.ID),
		zap.String("channel", n.Channel),
		zap.String("ts", n.MessageID),
		zap.Strings("panel", assignment.Handles()))
	return n, nil
}

// HandleClaimEvent never returns an error; failures are reported in the result.
func (s *Service) HandleClaimEvent(ctx context.Context, ev domain.ClaimEvent) domain.ClaimResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.tracker.Handle(ctx, ev)
	if res.Status == domain.ClaimIgnored {
		s.logger.Debug("HandleClaimEvent: event ignored", zap.String("reason", res.Reason))
	}

	return res
}

func (s *Service) ListTeamMembers() []string {
	return s.dir.Names()
}

// RecentlySelected lists the members picked for the last delivered notification.
func (s *Service) RecentlySelected() []string {
	return s.selector.Recent()
}

func (s *Service) Primary() domain.ReviewerIdentity {
	return s.dir.Primary()
}

// PostNotice posts plain text such as usage hints.
func (s *Service) PostNotice(ctx context.Context, channel, text string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.gw.PostMessage(ctx, channel, text)
	return err
}

func (s *Service) ResolveDisplayName(ctx context.Context, handle string) string {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.gw.ResolveDisplayName(ctx, handle)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.GatewayTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.cfg.GatewayTimeout)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, strings.ToLower(fe.Field())+" is required")
		default:
			fields = append(fields, strings.ToLower(fe.Field())+" must be a valid "+fe.Tag())
		}
	}

	return strings.Join(fields, ", ")
}
