// Package intake turns inbound source-control events and chat commands into review
// requests. It never selects reviewers or formats messages.
package intake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/format"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
)

const (
	// Usage describes the argument format shared by every manual command.
	Usage = "URL Title"

	TextCommandPrefix = "-pr "
)

var (
	ErrUsage = fmt.Errorf("%w: please use the format `%s`", domain.ErrValidation, Usage)

	leadingMention = regexp.MustCompile(`^\s*<@[A-Z0-9]+(\|[^>]*)?>\s*`)
)

var reviewActions = map[string]bool{
	"opened":           true,
	"reopened":         true,
	"ready_for_review": true,
}

// FromPullRequest maps a pull_request event. The boolean is false for actions and
// drafts that do not need a review yet.
func FromPullRequest(ev *github.PullRequestEvent, ids team.IdentityMap) (domain.ReviewRequest, bool) {
	if ev == nil || !reviewActions[ev.GetAction()] {
		return domain.ReviewRequest{}, false
	}

	pr := ev.GetPullRequest()
	if pr.GetDraft() {
		return domain.ReviewRequest{}, false
	}

	login := pr.GetUser().GetLogin()
	handle, _ := ids.Lookup(login)

	return domain.ReviewRequest{
		Title:           pr.GetTitle(),
		RepositoryLabel: ev.GetRepo().GetFullName(),
		AuthorHandle:    handle,
		AuthorName:      login,
		URL:             pr.GetHTMLURL(),
	}, true
}

// Manual builds a request for a chat command issued by requesterHandle.
func Manual(url, title, requesterHandle, requesterName, channel string) domain.ReviewRequest {
	return domain.ReviewRequest{
		Title:           title,
		RepositoryLabel: format.ManualRepositoryLabel,
		AuthorHandle:    requesterHandle,
		AuthorName:      requesterName,
		URL:             url,
		Channel:         channel,
	}
}

// ParseCommand splits "URL Title" on the first run of whitespace.
func ParseCommand(text string) (url, title string, err error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", "", ErrUsage
	}

	url = unwrapLink(fields[0])
	title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), fields[0]))
	if url == "" || title == "" {
		return "", "", ErrUsage
	}

	return url, title, nil
}

// StripMention drops the leading bot mention of an app_mention text.
func StripMention(text string) string {
	return leadingMention.ReplaceAllString(text, "")
}

// TextCommand reports whether text is a "-pr URL Title" message and returns its arguments.
func TextCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, TextCommandPrefix) {
		return "", false
	}

	return strings.TrimSpace(text[len(TextCommandPrefix):]), true
}

// unwrapLink turns Slack's <url> and <url|label> forms back into the bare url.
func unwrapLink(s string) string {
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return s
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
	link, _, _ := strings.Cut(s, "|")
	return link
}
