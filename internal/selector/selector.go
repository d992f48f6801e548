// Package selector picks review panels with a one-cycle fair rotation.
//
// The primary reviewer is always on the panel. The remaining seats are filled from
// members that were not chosen in the previous selection ("fresh"); members chosen last
// time ("stale") are only used once the fresh pool runs out. The author of the request is
// never picked unless the caller opted into the author fallback and nobody else is left.
package selector

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
)

const DefaultPanelSize = 2

type Selector struct {
	dir            *team.Directory
	logger         *zap.Logger
	panelSize      int
	authorFallback bool

	mu     sync.Mutex
	rnd    *rand.Rand
	recent map[string]struct{}
	gen    uint64
}

type Option func(*Selector)

// WithRand makes selection deterministic for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) {
		s.rnd = r
	}
}

func WithPanelSize(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.panelSize = n
		}
	}
}

// WithAuthorFallback lets the author back into an otherwise empty pool.
func WithAuthorFallback(enabled bool) Option {
	return func(s *Selector) {
		s.authorFallback = enabled
	}
}

func New(dir *team.Directory, logger *zap.Logger, opts ...Option) *Selector {
	now := uint64(time.Now().UnixNano())
	s := &Selector{
		dir:       dir,
		logger:    logger,
		panelSize: DefaultPanelSize,
		rnd:       rand.New(rand.NewPCG(now, now>>1)),
		recent:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Select builds the panel for req and records the chosen members as the new rotation state.
func (s *Selector) Select(req domain.ReviewRequest) domain.ReviewAssignment {
	a, _ := s.Reserve(req)
	return a
}

// Reserve is Select with an undo. Calling release puts the rotation back the way it was,
// unless another selection has happened since; later calls are no-ops.
func (s *Selector) Reserve(req domain.ReviewRequest) (a domain.ReviewAssignment, release func()) {
	eligible := s.eligible(req.AuthorHandle)

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]domain.ReviewerIdentity, 0, len(eligible))
	stale := make([]domain.ReviewerIdentity, 0, len(eligible))
	for _, m := range eligible {
		if _, ok := s.recent[m.Name]; ok {
			stale = append(stale, m)
		} else {
			fresh = append(fresh, m)
		}
	}

	var chosen []domain.ReviewerIdentity
	if len(fresh) >= s.panelSize {
		chosen = s.sample(fresh, s.panelSize)
	} else {
		chosen = append(s.sample(fresh, len(fresh)), s.sample(stale, s.panelSize-len(fresh))...)
	}

	prev := s.recent
	s.recent = make(map[string]struct{}, len(chosen))
	for _, m := range chosen {
		s.recent[m.Name] = struct{}{}
	}
	s.gen++
	gen := s.gen

	if len(chosen) < s.panelSize {
		s.logger.Warn("Select: not enough eligible reviewers for a full panel",
			zap.Int("wanted", s.panelSize),
			zap.Int("selected", len(chosen)),
			zap.String("author", req.AuthorHandle))
	}

	release = func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.gen != gen {
			return
		}
		s.recent = prev
		s.gen++
	}

	return domain.ReviewAssignment{
		Primary:    s.dir.Primary(),
		Additional: chosen,
		Request:    req,
	}, release
}

// Recent returns the names picked by the last selection, sorted. It backs the rotation
// listing of the team endpoint.
func (s *Selector) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.recent))
	for name := range s.recent {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (s *Selector) eligible(authorHandle string) []domain.ReviewerIdentity {
	members := s.dir.Members()
	if authorHandle == "" {
		return members
	}

	pool := slices.DeleteFunc(slices.Clone(members), func(m domain.ReviewerIdentity) bool {
		return m.Handle == authorHandle
	})
	if len(pool) == 0 && s.authorFallback {
		s.logger.Warn("Select: only the author is eligible, falling back to the author",
			zap.String("author", authorHandle))
		return members
	}

	return pool
}

// sample picks n members uniformly without replacement. Caller holds s.mu.
func (s *Selector) sample(pool []domain.ReviewerIdentity, n int) []domain.ReviewerIdentity {
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return nil
	}

	shuffled := slices.Clone(pool)
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:n]
}
