package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/format"
	"github.com/SilverCrocus/slack-pr-bot/internal/gateway/gatewaytest"
	"github.com/SilverCrocus/slack-pr-bot/internal/repository/memory"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
)

func testConfig() Config {
	return Config{
		Channel:        "C0REVIEWS",
		ClaimEmoji:     "white_check_mark",
		PanelSize:      2,
		NotifyPrimary:  true,
		GatewayTimeout: time.Second,
	}
}

func newService(t *testing.T, cfg Config) (*Service, *gatewaytest.Fake, *memory.Store) {
	t.Helper()

	dir, err := team.FromConfig(&team.Config{
		Primary: "Primary:U0PRIMARY1",
		Members: []string{"A:U0AAAAAAA", "B:U0BBBBBBB", "C:U0CCCCCCC"},
	})
	require.NoError(t, err)

	gw := gatewaytest.New()
	store := memory.New(zap.NewNop())
	svc := New(cfg, dir, gw, store, zap.NewNop(), WithRand(rand.New(rand.NewPCG(7, 7))))

	return svc, gw, store
}

func validRequest() domain.ReviewRequest {
	return domain.ReviewRequest{
		Title:           "Add retries",
		RepositoryLabel: "acme/app",
		AuthorHandle:    "U0AAAAAAA",
		URL:             "https://github.com/acme/app/pull/12",
	}
}

func TestCreateReviewRequest(t *testing.T) {
	svc, gw, store := newService(t, testConfig())

	n, err := svc.CreateReviewRequest(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "C0REVIEWS", n.Channel)
	assert.False(t, n.Claimed)
	assert.Equal(t, "U0PRIMARY1", n.Assignment.Primary.Handle)
	assert.ElementsMatch(t, []string{"U0BBBBBBB", "U0CCCCCCC"}, n.Assignment.Handles()[1:])

	require.Len(t, gw.Posts, 1)
	text := gw.Posts[0].Text
	assert.True(t, format.IsReviewRequest(text))
	assert.Contains(t, text, "<@U0PRIMARY1>")
	assert.Contains(t, text, "*Author:* <@U0AAAAAAA>")

	stored, err := store.Get(context.Background(), n.Channel, n.MessageID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, stored.ID)
}

func TestCreateReviewRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.ReviewRequest)
		message string
	}{
		{name: "empty url", mutate: func(r *domain.ReviewRequest) { r.URL = "" }, message: "url is required"},
		{name: "blank title", mutate: func(r *domain.ReviewRequest) { r.Title = "   " }, message: "title is required"},
		{name: "not a url", mutate: func(r *domain.ReviewRequest) { r.URL = "#" }, message: "url must be a valid url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, gw, _ := newService(t, testConfig())
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.CreateReviewRequest(context.Background(), req)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
			posts, _, _ := gw.Counts()
			assert.Zero(t, posts, "gateway must not be called")
			assert.Empty(t, svc.RecentlySelected(), "rotation must not move")
		})
	}
}

func TestCreateReviewRequestGatewayFailure(t *testing.T) {
	svc, gw, _ := newService(t, testConfig())
	req := validRequest()
	req.AuthorHandle = ""

	_, err := svc.CreateReviewRequest(context.Background(), req)
	require.NoError(t, err)
	delivered := svc.RecentlySelected()
	require.Len(t, delivered, 2)

	gw.PostErr = errors.New("connection reset")
	for range 3 {
		_, err = svc.CreateReviewRequest(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrGateway)
		assert.Equal(t, delivered, svc.RecentlySelected(), "failed posts must not move the rotation")
	}

	gw.PostErr = nil
	_, err = svc.CreateReviewRequest(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, delivered, svc.RecentlySelected())
}

func TestCreateReviewRequestUnknownChannel(t *testing.T) {
	svc, gw, _ := newService(t, testConfig())
	gw.PostErr = fmt.Errorf("%w: post message: channel_not_found", domain.ErrNotFound)

	_, err := svc.CreateReviewRequest(context.Background(), validRequest())

	require.ErrorIs(t, err, domain.ErrGateway)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, svc.RecentlySelected())
}

func TestCreateReviewRequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.GatewayTimeout = 10 * time.Millisecond
	svc, gw, _ := newService(t, cfg)
	gw.Delay = time.Second

	_, err := svc.CreateReviewRequest(context.Background(), validRequest())
	require.ErrorIs(t, err, domain.ErrGateway)
}

func TestCreateThenClaim(t *testing.T) {
	svc, gw, store := newService(t, testConfig())
	gw.Names["U0BBBBBBB"] = "Bee"

	n, err := svc.CreateReviewRequest(context.Background(), validRequest())
	require.NoError(t, err)

	ev := domain.ClaimEvent{ReactorHandle: "U0BBBBBBB", Channel: n.Channel, MessageID: n.MessageID, Emoji: "white_check_mark"}

	first := svc.HandleClaimEvent(context.Background(), ev)
	second := svc.HandleClaimEvent(context.Background(), ev)

	assert.Equal(t, domain.ClaimResult{Status: domain.ClaimSuccess, Reviewer: "Bee"}, first)
	assert.Equal(t, domain.ClaimIgnored, second.Status)

	_, updates, directs := gw.Counts()
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, directs)
	assert.Equal(t, "U0PRIMARY1", gw.Directs[0].Channel)

	stored, err := store.Get(context.Background(), n.Channel, n.MessageID)
	require.NoError(t, err)
	assert.True(t, stored.Claimed)
	assert.Equal(t, n.ID, stored.ID)
}

func TestHandleClaimEventWrongEmoji(t *testing.T) {
	svc, _, _ := newService(t, testConfig())

	res := svc.HandleClaimEvent(context.Background(), domain.ClaimEvent{
		ReactorHandle: "U0BBBBBBB", Channel: "C1", MessageID: "1.1", Emoji: "eyes",
	})

	assert.Equal(t, domain.ClaimIgnored, res.Status)
	assert.Equal(t, "not claim emoji", res.Reason)
}

func TestListTeamMembers(t *testing.T) {
	svc, _, _ := newService(t, testConfig())
	assert.Equal(t, []string{"Primary", "A", "B", "C"}, svc.ListTeamMembers())
}

func TestPostNotice(t *testing.T) {
	svc, gw, _ := newService(t, testConfig())

	require.NoError(t, svc.PostNotice(context.Background(), "C9", "usage"))
	require.Len(t, gw.Posts, 1)
	assert.Equal(t, "C9", gw.Posts[0].Channel)
}
