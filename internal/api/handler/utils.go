package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api"
	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

// writeServiceError maps service errors to a status. Gateway details stay in the log.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		api.WriteApiError(w, logger, publicReason(err), api.CodeInvalidRequest, http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		api.WriteApiError(w, logger, api.ErrNotFound, api.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, domain.ErrGateway):
		api.WriteApiError(w, logger, api.ErrGateway, api.CodeGateway, http.StatusBadGateway)
	default:
		api.WriteApiError(w, logger, api.ErrInternal, api.CodeInternal, http.StatusInternalServerError)
	}
}

// publicReason is the part of err that is safe to echo back to a caller.
func publicReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case errors.Is(err, domain.ErrNotFound):
		return api.ErrNotFound
	case errors.Is(err, domain.ErrGateway):
		return api.ErrGateway
	default:
		return api.ErrInternal
	}
}

func writeStatus(w http.ResponseWriter, logger *zap.Logger, status, message, reason string) {
	api.WriteJSON(w, logger, http.StatusOK, api.StatusResponse{
		Status:  status,
		Message: message,
		Reason:  reason,
	})
}

func toReviewer(r domain.ReviewerIdentity) api.Reviewer {
	return api.Reviewer{Name: r.Name, Handle: r.Handle}
}

func toNotification(n *domain.PostedNotification) api.Notification {
	additional := make([]api.Reviewer, len(n.Assignment.Additional))
	for i, r := range n.Assignment.Additional {
		additional[i] = toReviewer(r)
	}

	return api.Notification{
		ID:         n.ID,
		Channel:    n.Channel,
		MessageID:  n.MessageID,
		Primary:    toReviewer(n.Assignment.Primary),
		Additional: additional,
		PostedAt:   n.PostedAt,
	}
}
