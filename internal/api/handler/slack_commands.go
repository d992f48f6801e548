package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api"
	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/intake"
)

const (
	CommandPR    = "/pr"
	CommandHelp  = "/pr-help"
	CommandTeam  = "/pr-team"
	slashUsage   = CommandPR + " " + intake.Usage
	unknownReply = "Unknown command. Try `" + CommandHelp + "` for available commands."
	createdReply = "PR review request created successfully!"
	failedReply  = "Failed to create PR review request. Please try again later."
	teamHeadline = "Current PR Review Team:"
	helpHeadline = "*PR Review Bot Commands*"
)

// SlackCommand answers slash commands with an ephemeral reply.
func SlackCommand(svc ReviewService, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			logger.Warn("SlackCommand: failed to parse command", zap.Error(err))
			api.WriteApiError(w, logger, "failed to parse command", api.CodeInvalidRequest, http.StatusBadRequest)
			return
		}

		var text string
		switch cmd.Command {
		case CommandPR:
			text = runPRCommand(ctx, svc, logger, cmd)
		case CommandHelp:
			text = helpText()
		case CommandTeam:
			text = teamText(svc.ListTeamMembers())
		default:
			logger.Info("SlackCommand: unknown command", zap.String("command", cmd.Command))
			text = unknownReply
		}

		api.WriteJSON(w, logger, http.StatusOK, &slack.Msg{
			ResponseType: slack.ResponseTypeEphemeral,
			Text:         text,
		})
	}
}

func runPRCommand(ctx context.Context, svc ReviewService, logger *zap.Logger, cmd slack.SlashCommand) string {
	n, err := submitManual(ctx, svc, cmd.Text, cmd.UserID, cmd.ChannelID)
	if err != nil {
		logger.Warn("SlackCommand: review request not sent",
			zap.String("user", cmd.UserID), zap.String("channel", cmd.ChannelID), zap.Error(err))
		if errors.Is(err, domain.ErrValidation) {
			return fmt.Sprintf("Error: Please use the format `%s`", slashUsage)
		}
		return failedReply
	}

	logger.Info("SlackCommand: review request sent", zap.String("id", n.ID), zap.String("user", cmd.UserID))
	return createdReply
}

func helpText() string {
	lines := []string{
		helpHeadline,
		"• `" + slashUsage + "` - Create a new PR review request",
		"• `" + CommandTeam + "` - Show current review team",
		"• `" + CommandHelp + "` - Show this help message",
		"",
		"You can also mention the bot (`" + mentionUsage + "`) or post `" + textUsage + "` in a channel.",
	}

	return strings.Join(lines, "\n")
}

func teamText(members []string) string {
	var b strings.Builder
	b.WriteString(teamHeadline)
	for _, m := range members {
		b.WriteString("\n• ")
		b.WriteString(m)
	}

	return b.String()
}
