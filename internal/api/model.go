package api

import "time"

const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
	StatusError   = "error"
)

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type Team struct {
	Primary          string   `json:"primary"`
	Members          []string `json:"members"`
	RecentlySelected []string `json:"recently_selected"`
}

type ReviewRequest struct {
	Title        string `json:"title"`
	Repository   string `json:"repository"`
	Author       string `json:"author"`
	AuthorHandle string `json:"author_handle"`
	URL          string `json:"url"`
	Channel      string `json:"channel"`
}

type Reviewer struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

type Notification struct {
	ID         string     `json:"id"`
	Channel    string     `json:"channel"`
	MessageID  string     `json:"message_id"`
	Primary    Reviewer   `json:"primary"`
	Additional []Reviewer `json:"additional"`
	PostedAt   time.Time  `json:"posted_at"`
}
