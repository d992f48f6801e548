// Package format renders review notifications and owns the marker strings that the
// claim tracker uses to recognise them.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

const (
	// ReviewMarker identifies a review-request notification.
	ReviewMarker = "New PR Needs Review:"
	// ClaimedMarker is appended to a notification once it has been claimed.
	ClaimedMarker = "Review claimed by"

	ManualRepositoryLabel = "Manual Request"
	UnknownUser           = "Unknown User"

	permalinkBase = "https://slack.com/archives/"

	primaryLabel     = "*Primary Reviewer:*"
	callToActionTail = "to claim this review."
	claimAttribution = "\n\n*" + ClaimedMarker + " "
)

var handlePattern = regexp.MustCompile(`^[UW][A-Z0-9]{2,}$`)

type Formatter struct {
	claimEmoji string
}

func New(claimEmoji string) *Formatter {
	return &Formatter{claimEmoji: strings.Trim(claimEmoji, ":")}
}

func (f *Formatter) ClaimEmoji() string {
	return f.claimEmoji
}

// ReviewRequest renders the notification for a. The output is deterministic.
func (f *Formatter) ReviewRequest(a domain.ReviewAssignment) string {
	req := a.Request

	additional := make([]string, 0, len(a.Additional))
	for _, r := range a.Additional {
		additional = append(additional, Mention(r.Handle))
	}
	others := strings.Join(additional, " or ")
	if others == "" {
		others = "_none available_"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s\n", ReviewMarker, orDefault(req.Title, "No title provided"))
	fmt.Fprintf(&b, "*Repository:* %s\n", orDefault(req.RepositoryLabel, "Unknown"))
	fmt.Fprintf(&b, "*Author:* %s\n", Author(req))
	fmt.Fprintf(&b, "*URL:* %s\n\n", req.URL)
	fmt.Fprintf(&b, "%s %s\n", primaryLabel, Mention(a.Primary.Handle))
	fmt.Fprintf(&b, "*Additional Reviewers (one needed):* %s\n\n", others)
	fmt.Fprintf(&b, "React with :%s: %s", f.claimEmoji, callToActionTail)

	return b.String()
}

// Claimed appends the claim attribution to the original notification text.
func (f *Formatter) Claimed(original, reactorHandle, reactorName string) string {
	return fmt.Sprintf("%s%s%s (%s)!*", original, claimAttribution, Mention(reactorHandle), orDefault(reactorName, UnknownUser))
}

// ClaimNotice is the direct message sent to the primary reviewer after a claim.
func (f *Formatter) ClaimNotice(reactorHandle, reactorName, channel, messageID string) string {
	return fmt.Sprintf("*PR Review Update:* %s (%s) has claimed the review for the PR.\n*Original Message:* %s",
		Mention(reactorHandle), orDefault(reactorName, UnknownUser), Permalink(channel, messageID))
}

func IsReviewRequest(text string) bool {
	return strings.Contains(text, ReviewMarker)
}

// IsClaimed reports whether the claim attribution follows the call to action. Marker text
// inside the title or other request fields does not count.
func IsClaimed(text string) bool {
	if i := strings.LastIndex(text, callToActionTail); i >= 0 {
		text = text[i+len(callToActionTail):]
	}

	return strings.Contains(text, claimAttribution)
}

// MentionsReviewer reports whether handle is mentioned on the reviewer lines of text.
func MentionsReviewer(text, handle string) bool {
	mention := Mention(handle)
	if mention == handle {
		return false
	}

	if i := strings.LastIndex(text, primaryLabel); i >= 0 {
		text = text[i:]
	}
	if i := strings.LastIndex(text, callToActionTail); i >= 0 {
		text = text[:i]
	}

	return strings.Contains(text, mention)
}

// Mention renders a platform mention when handle looks like a user id, otherwise the
// handle itself.
func Mention(handle string) string {
	if handlePattern.MatchString(handle) {
		return "<@" + handle + ">"
	}

	return handle
}

// Author prefers a mention of the author handle, then the literal author name.
func Author(req domain.ReviewRequest) string {
	if req.AuthorHandle != "" {
		return Mention(req.AuthorHandle)
	}

	return orDefault(req.AuthorName, "Unknown")
}

func Permalink(channel, messageID string) string {
	return permalinkBase + channel + "/p" + strings.ReplaceAll(messageID, ".", "")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}

	return v
}
