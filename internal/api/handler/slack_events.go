package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api"
	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/intake"
)

const (
	mentionUsage = "@PR Review Bot " + intake.Usage
	textUsage    = intake.TextCommandPrefix + intake.Usage
)

// SlackEvents serves the Events API: url verification, claim reactions, mentions
// and "-pr" messages. Callbacks are always acknowledged with 200 so Slack does not
// redeliver; the outcome is in the body.
func SlackEvents(svc ReviewService, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Warn("SlackEvents: failed to read body", zap.Error(err))
			api.WriteApiError(w, logger, "failed to read body", api.CodeInvalidRequest, http.StatusBadRequest)
			return
		}

		event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
		if err != nil {
			logger.Warn("SlackEvents: failed to parse event", zap.Error(err))
			api.WriteApiError(w, logger, "failed to parse event", api.CodeInvalidRequest, http.StatusBadRequest)
			return
		}

		switch event.Type {
		case slackevents.URLVerification:
			var challenge slackevents.ChallengeResponse
			if err = json.Unmarshal(body, &challenge); err != nil {
				logger.Warn("SlackEvents: malformed url verification", zap.Error(err))
				api.WriteApiError(w, logger, "malformed url verification", api.CodeInvalidRequest, http.StatusBadRequest)
				return
			}
			api.WriteJSON(w, logger, http.StatusOK, map[string]string{"challenge": challenge.Challenge})

		case slackevents.CallbackEvent:
			if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
				logger.Info("SlackEvents: redelivered event",
					zap.String("retry", retry), zap.String("reason", r.Header.Get("X-Slack-Retry-Reason")))
			}
			resp := handleCallback(ctx, svc, logger, event.InnerEvent)
			api.WriteJSON(w, logger, http.StatusOK, resp)

		default:
			writeStatus(w, logger, api.StatusIgnored, "", "unsupported event")
		}
	}
}

func handleCallback(ctx context.Context, svc ReviewService, logger *zap.Logger, inner slackevents.EventsAPIInnerEvent) api.StatusResponse {
	switch ev := inner.Data.(type) {
	case *slackevents.ReactionAddedEvent:
		res := svc.HandleClaimEvent(ctx, domain.ClaimEvent{
			ReactorHandle: ev.User,
			Channel:       ev.Item.Channel,
			MessageID:     ev.Item.Timestamp,
			Emoji:         ev.Reaction,
		})
		logger.Info("SlackEvents: reaction handled",
			zap.String("status", string(res.Status)),
			zap.String("reason", res.Reason),
			zap.String("channel", ev.Item.Channel),
			zap.String("ts", ev.Item.Timestamp))
		return api.StatusResponse{Status: string(res.Status), Reason: res.Reason}

	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			return api.StatusResponse{Status: api.StatusIgnored, Reason: "bot message"}
		}
		return manualFromChat(ctx, svc, logger, intake.StripMention(ev.Text), ev.User, ev.Channel, mentionUsage)

	case *slackevents.MessageEvent:
		if ev.BotID != "" || ev.SubType != "" {
			return api.StatusResponse{Status: api.StatusIgnored, Reason: "bot message"}
		}
		args, ok := intake.TextCommand(ev.Text)
		if !ok {
			return api.StatusResponse{Status: api.StatusIgnored, Reason: "not a command"}
		}
		return manualFromChat(ctx, svc, logger, args, ev.User, ev.Channel, textUsage)
	}

	return api.StatusResponse{Status: api.StatusIgnored, Reason: "unsupported event"}
}

func manualFromChat(ctx context.Context, svc ReviewService, logger *zap.Logger, args, user, channel, usage string) api.StatusResponse {
	n, err := submitManual(ctx, svc, args, user, channel)
	if err != nil {
		logger.Warn("SlackEvents: manual request not sent",
			zap.String("user", user), zap.String("channel", channel), zap.Error(err))
		replyUsage(ctx, svc, logger, channel, usage, err)
		return api.StatusResponse{Status: api.StatusError, Reason: publicReason(err)}
	}

	logger.Info("SlackEvents: manual request sent", zap.String("id", n.ID), zap.String("user", user))
	return api.StatusResponse{Status: api.StatusSuccess, Message: "PR review request created"}
}
