package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api"
)

func GetTeam(svc ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := api.Team{
			Primary:          svc.Primary().Name,
			Members:          svc.ListTeamMembers(),
			RecentlySelected: svc.RecentlySelected(),
		}

		api.WriteJSON(w, logger, http.StatusOK, resp)
		logger.Debug("GetTeam: successfully give team", zap.Int("members", len(resp.Members)))
	}
}
