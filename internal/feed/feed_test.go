package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scroll-api/internal/domain"
)

// fakeSource is a controllable ExcerptSource. When gate is set, every
// lookup blocks until the gate is closed, which lets tests hold hydrations
// in flight and observe the preparing set.
type fakeSource struct {
	mu         sync.Mutex
	byTitle    map[string]string
	bySlug     map[string]string
	errTitles  map[string]bool
	gate       chan struct{}
	titleCalls []string
	slugCalls  []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		byTitle:   make(map[string]string),
		bySlug:    make(map[string]string),
		errTitles: make(map[string]bool),
	}
}

func (s *fakeSource) ExcerptByTitle(ctx context.Context, title string) (string, error) {
	s.mu.Lock()
	s.titleCalls = append(s.titleCalls, title)
	gate := s.gate
	fail := s.errTitles[title]
	excerpt := s.byTitle[title]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New("excerpt service unavailable")
	}
	return excerpt, nil
}

func (s *fakeSource) ExcerptBySlug(ctx context.Context, slug string) (string, error) {
	s.mu.Lock()
	s.slugCalls = append(s.slugCalls, slug)
	gate := s.gate
	excerpt := s.bySlug[slug]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return excerpt, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titleCalls) + len(s.slugCalls)
}

func (s *fakeSource) countsByMethod() (titles, slugs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titleCalls), len(s.slugCalls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// firstPick makes uniform-random selection deterministic: always the first
// remaining candidate, i.e. pool order.
func firstPick(int) int { return 0 }

func newTestEngine(t *testing.T, source ExcerptSource, cfg Config) *Engine {
	t.Helper()
	engine := NewEngine(source, cfg, testLogger())
	t.Cleanup(engine.Close)
	return engine
}

// textCards builds n text cards with excerpts registered in source.
func textCards(source *fakeSource, n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		title := fmt.Sprintf("Text %d", i+1)
		cards[i] = domain.Card{Kind: domain.KindText, ID: fmt.Sprintf("text-%d", i+1), Title: title}
		source.byTitle[title] = "an excerpt of " + title
	}
	return cards
}

func topicCards(source *fakeSource, n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		slug := fmt.Sprintf("topic-%d", i+1)
		cards[i] = domain.Card{
			Kind:  domain.KindTopic,
			ID:    slug,
			Title: fmt.Sprintf("Topic %d", i+1),
			Slug:  slug,
		}
		source.bySlug[slug] = "a note on " + slug
	}
	return cards
}

func genreCards(source *fakeSource, n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		book := fmt.Sprintf("Book %d", i+1)
		cards[i] = domain.Card{
			Kind:  domain.KindGenre,
			ID:    fmt.Sprintf("genre-%d", i+1),
			Title: fmt.Sprintf("Genre %d", i+1),
			Books: []string{book},
		}
		source.byTitle[book] = "from " + book
	}
	return cards
}

func waitReadyLen(t *testing.T, engine *Engine, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(engine.GetReadyQueue()) == n
	}, 2*time.Second, 5*time.Millisecond, "ready queue never reached %d cards", n)
}

func waitIdle(t *testing.T, engine *Engine) {
	t.Helper()
	require.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return len(engine.preparing) == 0
	}, 2*time.Second, 5*time.Millisecond, "preparing set never drained")
}

// requireInvariants asserts the cross-set invariants: a card id lives in at
// most one of seen/preparing/ready for its kind, and ready + preparing
// never exceeds the target.
func requireInvariants(t *testing.T, engine *Engine) {
	t.Helper()
	engine.mu.Lock()
	defer engine.mu.Unlock()

	require.LessOrEqual(t, len(engine.ready)+len(engine.preparing), engine.target,
		"backpressure cap exceeded")

	inReady := make(map[cardKey]struct{}, len(engine.ready))
	for _, card := range engine.ready {
		key := cardKey{card.Kind, card.ID}
		_, dup := inReady[key]
		require.False(t, dup, "duplicate %v in ready queue", key)
		inReady[key] = struct{}{}
	}
	for key := range engine.preparing {
		_, clash := inReady[key]
		require.False(t, clash, "%v in both preparing and ready", key)
		_, seen := engine.seen[key.kind][key.id]
		require.False(t, seen, "%v in both preparing and seen", key)
	}
	for key := range inReady {
		_, seen := engine.seen[key.kind][key.id]
		require.False(t, seen, "%v in both ready and seen", key)
	}
}
