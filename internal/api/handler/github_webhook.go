package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api"
	"github.com/SilverCrocus/slack-pr-bot/internal/intake"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
)

const maxWebhookBody = 1 << 20

// GitHubWebhook turns pull_request deliveries into review requests. Signatures are
// checked by the verify middleware before this runs.
func GitHubWebhook(svc ReviewService, ids team.IdentityMap, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		payload, err := webhookPayload(r)
		if err != nil {
			logger.Warn("GitHubWebhook: failed to read body", zap.Error(err))
			api.WriteApiError(w, logger, "failed to read body", api.CodeInvalidRequest, http.StatusBadRequest)
			return
		}

		eventType := github.WebHookType(r)
		delivery := github.DeliveryID(r)

		event, err := github.ParseWebHook(eventType, payload)
		if err != nil {
			logger.Info("GitHubWebhook: unsupported event", zap.String("event", eventType), zap.String("delivery", delivery))
			writeStatus(w, logger, api.StatusIgnored, "", "unsupported event")
			return
		}

		switch e := event.(type) {
		case *github.PingEvent:
			logger.Info("GitHubWebhook: ping", zap.Int64("hook_id", e.GetHookID()))
			writeStatus(w, logger, api.StatusSuccess, "pong", "")

		case *github.PullRequestEvent:
			req, ok := intake.FromPullRequest(e, ids)
			if !ok {
				logger.Debug("GitHubWebhook: action does not need review",
					zap.String("action", e.GetAction()), zap.Bool("draft", e.GetPullRequest().GetDraft()))
				writeStatus(w, logger, api.StatusIgnored, "", "action does not need review")
				return
			}

			n, err := svc.CreateReviewRequest(ctx, req)
			if err != nil {
				logger.Error("GitHubWebhook: failed to relay pull request",
					zap.String("delivery", delivery), zap.String("url", req.URL), zap.Error(err))
				writeServiceError(w, logger, err)
				return
			}

			logger.Info("GitHubWebhook: PR notification sent",
				zap.String("delivery", delivery), zap.String("id", n.ID), zap.String("repository", req.RepositoryLabel))
			writeStatus(w, logger, api.StatusSuccess, "PR notification sent", "")

		default:
			writeStatus(w, logger, api.StatusIgnored, "", "unsupported event")
		}
	}
}

// webhookPayload returns the JSON payload for both json and form content types.
func webhookPayload(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		return body, nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}

	return []byte(form.Get("payload")), nil
}
