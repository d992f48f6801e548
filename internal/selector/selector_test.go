package selector

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
)

var primary = domain.ReviewerIdentity{Name: "Primary", Handle: "U0PRIMARY"}

func member(name string) domain.ReviewerIdentity {
	return domain.ReviewerIdentity{Name: name, Handle: "U0" + name}
}

func newDirectory(t *testing.T, names ...string) *team.Directory {
	t.Helper()

	members := make([]domain.ReviewerIdentity, 0, len(names))
	for _, n := range names {
		members = append(members, member(n))
	}
	dir, err := team.NewDirectory(primary, members)
	require.NoError(t, err)

	return dir
}

func newSelector(t *testing.T, dir *team.Directory, opts ...Option) *Selector {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return New(dir, zap.NewNop(), opts...)
}

func names(rs []domain.ReviewerIdentity) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestSelectExcludesPrimaryAndAuthor(t *testing.T) {
	dir := newDirectory(t, "A", "B", "C", "D", "E")
	s := newSelector(t, dir)

	for i := 0; i < 50; i++ {
		a := s.Select(domain.ReviewRequest{AuthorHandle: member("C").Handle})

		assert.Equal(t, primary, a.Primary)
		require.Len(t, a.Additional, 2)
		assert.NotEqual(t, a.Additional[0], a.Additional[1])
		for _, r := range a.Additional {
			assert.NotEqual(t, primary.Handle, r.Handle)
			assert.NotEqual(t, member("C").Handle, r.Handle)
		}
	}
}

func TestSelectRotationNeverRepeatsWhileFreshPoolLasts(t *testing.T) {
	dir := newDirectory(t, "A", "B", "C", "D", "E")
	s := newSelector(t, dir)

	prev := map[string]bool{}
	for i := 0; i < 100; i++ {
		a := s.Select(domain.ReviewRequest{})
		require.Len(t, a.Additional, 2)

		// Pool of 5 with 2 stale leaves 3 fresh, so the previous panel is never reused.
		for _, r := range a.Additional {
			assert.False(t, prev[r.Name], "member %s picked in consecutive selections", r.Name)
		}

		prev = map[string]bool{}
		for _, r := range a.Additional {
			prev[r.Name] = true
		}
		assert.ElementsMatch(t, names(a.Additional), s.Recent())
	}
}

func TestSelectFillsFromStaleWhenFreshIsShort(t *testing.T) {
	dir := newDirectory(t, "A", "B", "C")
	s := newSelector(t, dir)

	first := s.Select(domain.ReviewRequest{})
	require.Len(t, first.Additional, 2)

	var fresh string
	for _, n := range []string{"A", "B", "C"} {
		if !slices.Contains(names(first.Additional), n) {
			fresh = n
		}
	}

	second := s.Select(domain.ReviewRequest{})
	require.Len(t, second.Additional, 2)
	assert.Equal(t, fresh, second.Additional[0].Name, "the only fresh member is taken first")
	assert.Contains(t, names(first.Additional), second.Additional[1].Name)
}

func TestSelectForcedRepeatWhenPoolIsExactlyPanel(t *testing.T) {
	dir := newDirectory(t, "A", "B", "C")
	s := newSelector(t, dir)
	req := domain.ReviewRequest{AuthorHandle: member("A").Handle}

	first := s.Select(req)
	assert.Equal(t, primary, first.Primary)
	assert.ElementsMatch(t, []string{"B", "C"}, names(first.Additional))
	assert.Equal(t, []string{"B", "C"}, s.Recent())

	second := s.Select(req)
	assert.ElementsMatch(t, []string{"B", "C"}, names(second.Additional))
	assert.Equal(t, []string{"B", "C"}, s.Recent())
}

func TestSelectDegradesGracefully(t *testing.T) {
	t.Run("single eligible member", func(t *testing.T) {
		s := newSelector(t, newDirectory(t, "A", "B"))
		a := s.Select(domain.ReviewRequest{AuthorHandle: member("A").Handle})
		assert.Equal(t, []string{"B"}, names(a.Additional))
	})

	t.Run("no members at all", func(t *testing.T) {
		s := newSelector(t, newDirectory(t))
		a := s.Select(domain.ReviewRequest{})
		assert.Equal(t, primary, a.Primary)
		assert.Empty(t, a.Additional)
		assert.Empty(t, s.Recent())
	})

	t.Run("only the author without fallback", func(t *testing.T) {
		s := newSelector(t, newDirectory(t, "A"))
		a := s.Select(domain.ReviewRequest{AuthorHandle: member("A").Handle})
		assert.Empty(t, a.Additional)
	})

	t.Run("only the author with fallback", func(t *testing.T) {
		s := newSelector(t, newDirectory(t, "A"), WithAuthorFallback(true))
		a := s.Select(domain.ReviewRequest{AuthorHandle: member("A").Handle})
		assert.Equal(t, []string{"A"}, names(a.Additional))
	})
}

func TestSelectPanelSize(t *testing.T) {
	s := newSelector(t, newDirectory(t, "A", "B", "C", "D", "E"), WithPanelSize(3))
	a := s.Select(domain.ReviewRequest{})
	assert.Len(t, a.Additional, 3)
}

func TestSelectKeepsRequest(t *testing.T) {
	s := newSelector(t, newDirectory(t, "A", "B", "C"))
	req := domain.ReviewRequest{Title: "Fix", URL: "https://example.com/pr/1"}
	assert.Equal(t, req, s.Select(req).Request)
}

func TestSelectConcurrent(t *testing.T) {
	members := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		members = append(members, fmt.Sprintf("M%d", i))
	}
	s := newSelector(t, newDirectory(t, members...))

	var wg sync.WaitGroup
	results := make([]domain.ReviewAssignment, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Select(domain.ReviewRequest{})
		}(i)
	}
	wg.Wait()

	for _, a := range results {
		require.Len(t, a.Additional, 2)
		assert.NotEqual(t, a.Additional[0].Name, a.Additional[1].Name)
	}
	assert.Len(t, s.Recent(), 2)
}

func TestReserveRelease(t *testing.T) {
	dir := newDirectory(t, "A", "B", "C", "D")
	s := newSelector(t, dir)

	first := s.Select(domain.ReviewRequest{})
	delivered := s.Recent()
	assert.ElementsMatch(t, names(first.Additional), delivered)

	_, release := s.Reserve(domain.ReviewRequest{})
	assert.NotEqual(t, delivered, s.Recent())

	release()
	assert.Equal(t, delivered, s.Recent())

	release()
	assert.Equal(t, delivered, s.Recent(), "second release is a no-op")
}

func TestReleaseAfterLaterSelectionIsNoop(t *testing.T) {
	dir := newDirectory(t, "A", "B", "C", "D")
	s := newSelector(t, dir)

	_, release := s.Reserve(domain.ReviewRequest{})
	later := s.Select(domain.ReviewRequest{})

	release()
	assert.ElementsMatch(t, names(later.Additional), s.Recent())
}
