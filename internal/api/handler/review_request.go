package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api"
	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

// CreateReviewRequest accepts a review request from tooling other than GitHub.
func CreateReviewRequest(svc ReviewService, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req api.ReviewRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Warn("CreateReviewRequest: failed to decode body", zap.Error(err))
			api.WriteApiError(w, logger, "failed to decode body", api.CodeInvalidRequest, http.StatusBadRequest)
			return
		}

		n, err := svc.CreateReviewRequest(ctx, domain.ReviewRequest{
			Title:           req.Title,
			RepositoryLabel: req.Repository,
			AuthorHandle:    req.AuthorHandle,
			AuthorName:      req.Author,
			URL:             req.URL,
			Channel:         req.Channel,
		})
		if err != nil {
			logger.Warn("CreateReviewRequest: request not sent", zap.String("url", req.URL), zap.Error(err))
			writeServiceError(w, logger, err)
			return
		}

		resp := map[string]api.Notification{"notification": toNotification(n)}
		api.WriteJSON(w, logger, http.StatusCreated, resp)

		logger.Info("CreateReviewRequest: successfully created review request", zap.String("id", n.ID))
	}
}
