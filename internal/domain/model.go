package domain

import "time"

type ReviewerIdentity struct {
	Name   string
	Handle string
}

// ReviewRequest is built once per inbound event and consumed by selection and formatting.
type ReviewRequest struct {
	Title           string `validate:"required"`
	RepositoryLabel string
	AuthorHandle    string
	AuthorName      string
	URL             string `validate:"required,url"`
	Channel         string `validate:"required"`
}

// ReviewAssignment is the panel chosen for one request. Primary is never part of Additional.
type ReviewAssignment struct {
	Primary    ReviewerIdentity
	Additional []ReviewerIdentity
	Request    ReviewRequest
}

// Handles returns the handles of the whole panel, primary first.
func (a ReviewAssignment) Handles() []string {
	handles := make([]string, 0, len(a.Additional)+1)
	handles = append(handles, a.Primary.Handle)
	for _, r := range a.Additional {
		handles = append(handles, r.Handle)
	}

	return handles
}

type PostedNotification struct {
	ID         string
	Channel    string
	MessageID  string
	Assignment ReviewAssignment
	Claimed    bool
	ClaimedBy  string
	ClaimedAt  *time.Time
	PostedAt   time.Time
}

type ClaimEvent struct {
	ReactorHandle string
	Channel       string
	MessageID     string
	Emoji         string
}

type ClaimStatus string

const (
	ClaimSuccess ClaimStatus = "success"
	ClaimIgnored ClaimStatus = "ignored"
	ClaimError   ClaimStatus = "error"
)

type ClaimResult struct {
	Status   ClaimStatus `json:"status"`
	Reason   string      `json:"reason,omitempty"`
	Reviewer string      `json:"reviewer,omitempty"`
}

func Ignored(reason string) ClaimResult {
	return ClaimResult{Status: ClaimIgnored, Reason: reason}
}

func Failed(reason string) ClaimResult {
	return ClaimResult{Status: ClaimError, Reason: reason}
}
