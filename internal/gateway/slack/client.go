// Package slack implements the messaging gateway on top of the Slack Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/format"
	"github.com/SilverCrocus/slack-pr-bot/internal/gateway"
)

const (
	maxRetryAttempts  = 3
	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

type Config struct {
	Token       string        `yaml:"token" env:"SLACK_BOT_TOKEN" env-required:"true"`
	APIURL      string        `yaml:"api_url" env:"SLACK_API_URL"`
	Username    string        `yaml:"username" env:"SLACK_BOT_USERNAME" env-default:"PR Review Bot"`
	IconEmoji   string        `yaml:"icon_emoji" env:"SLACK_BOT_ICON" env-default:":robot_face:"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"SLACK_HTTP_TIMEOUT" env-default:"10s"`
}

type Client struct {
	api       *slack.Client
	username  string
	iconEmoji string
	logger    *zap.Logger
}

var _ gateway.Gateway = (*Client)(nil)

func New(cfg *Config, logger *zap.Logger) *Client {
	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	return &Client{
		api:       slack.New(cfg.Token, opts...),
		username:  cfg.Username,
		iconEmoji: cfg.IconEmoji,
		logger:    logger,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel, text string) (gateway.MessageRef, error) {
	var ref gateway.MessageRef

	err := c.withRetry(ctx, "chat.postMessage", func() error {
		ch, ts, err := c.api.PostMessageContext(ctx, channel,
			slack.MsgOptionText(text, false),
			slack.MsgOptionUsername(c.username),
			slack.MsgOptionIconEmoji(c.iconEmoji),
		)
		if err != nil {
			return err
		}
		ref = gateway.MessageRef{Channel: ch, MessageID: ts}
		return nil
	})
	if err != nil {
		return gateway.MessageRef{}, c.wrap("post message", err)
	}

	c.logger.Info("message sent", zap.String("channel", ref.Channel), zap.String("ts", ref.MessageID))
	return ref, nil
}

func (c *Client) UpdateMessage(ctx context.Context, channel, messageID, text string) error {
	err := c.withRetry(ctx, "chat.update", func() error {
		_, _, _, err := c.api.UpdateMessageContext(ctx, channel, messageID, slack.MsgOptionText(text, false))
		return err
	})
	if err != nil {
		return c.wrap("update message", err)
	}

	return nil
}

// FetchMessage reads exactly one message by narrowing the history window to its timestamp.
func (c *Client) FetchMessage(ctx context.Context, channel, messageID string) (string, error) {
	var resp *slack.GetConversationHistoryResponse

	err := c.withRetry(ctx, "conversations.history", func() error {
		var err error
		resp, err = c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channel,
			Latest:    messageID,
			Oldest:    messageID,
			Inclusive: true,
			Limit:     1,
		})
		return err
	})
	if err != nil {
		return "", c.wrap("fetch message", err)
	}

	if resp == nil || len(resp.Messages) == 0 {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrNotFound, channel, messageID)
	}

	return resp.Messages[0].Text, nil
}

func (c *Client) ResolveDisplayName(ctx context.Context, handle string) string {
	var user *slack.User

	err := c.withRetry(ctx, "users.info", func() error {
		var err error
		user, err = c.api.GetUserInfoContext(ctx, handle)
		return err
	})
	if err != nil || user == nil {
		c.logger.Warn("failed to get user info", zap.String("user", handle), zap.Error(err))
		return format.UnknownUser
	}

	switch {
	case user.RealName != "":
		return user.RealName
	case user.Name != "":
		return user.Name
	default:
		return format.UnknownUser
	}
}

func (c *Client) SendDirect(ctx context.Context, handle, text string) error {
	var channel *slack.Channel

	err := c.withRetry(ctx, "conversations.open", func() error {
		var err error
		channel, _, _, err = c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
			Users: []string{handle},
		})
		return err
	})
	if err != nil {
		return c.wrap("open direct conversation", err)
	}

	_, err = c.PostMessage(ctx, channel.ID, text)
	return err
}

// withRetry retries only when Slack rate limits the call.
func (c *Client) withRetry(ctx context.Context, method string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			var rl *slack.RateLimitedError
			if errors.As(err, &rl) && rl.RetryAfter > 0 {
				return rl.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("slack call rate limited, retrying",
				zap.String("method", method), zap.Uint("attempt", n+1), zap.Error(err))
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRateLimited),
	)
}

func (c *Client) wrap(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrNotFound, op, err)
	}

	c.logger.Error("slack call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", domain.ErrGateway, op, err)
}

func isRateLimited(err error) bool {
	var rl *slack.RateLimitedError
	return errors.As(err, &rl)
}

func isNotFound(err error) bool {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) {
		switch resp.Err {
		case "message_not_found", "channel_not_found", "thread_not_found":
			return true
		}
	}

	return false
}
