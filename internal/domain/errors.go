package domain

import "errors"

var (
	// ErrValidation marks a malformed or incomplete request; the message is safe to show to users.
	ErrValidation = errors.New("invalid request")

	// ErrGateway marks a failed or timed out messaging call.
	ErrGateway = errors.New("messaging gateway failure")

	// ErrNotFound marks a message handle the gateway cannot resolve.
	ErrNotFound = errors.New("message not found")
)

// Reasons reported with ignored and failed claim results.
const (
	ReasonNotClaimEmoji   = "not claim emoji"
	ReasonNotReviewPost   = "not a PR review message"
	ReasonAlreadyClaimed  = "review already claimed"
	ReasonNotOnPanel      = "user not an assigned reviewer"
	ReasonMissingData     = "missing required event data"
	ReasonMessageNotFound = "couldn't retrieve original message"
	ReasonGatewayFailure  = "messaging gateway failure"
)
