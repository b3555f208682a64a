package feed

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scroll-api/internal/domain"
	"github.com/phrazzld/scroll-api/internal/platform/metrics"
)

// DefaultTargetSize is the default bound on ready + preparing cards.
const DefaultTargetSize = 5

// Listener receives an immutable snapshot of the ready queue whenever a
// newly hydrated card is committed or a reconciliation changes the queue.
// Listeners may be invoked concurrently from hydration goroutines.
type Listener func(snapshot []domain.Card)

// Config holds tuning knobs for the engine.
type Config struct {
	// TargetSize bounds ready + preparing cards. Zero means DefaultTargetSize.
	TargetSize int

	// Metrics is optional; nil disables recording.
	Metrics *metrics.Feed

	// RandPick selects a uniform-random index in [0, n). Nil uses the
	// package-level PRNG; tests inject a deterministic picker.
	RandPick func(n int) int
}

// cardKey qualifies a card ID by kind, since IDs are only unique per kind.
type cardKey struct {
	kind domain.CardKind
	id   string
}

// Engine is the feed scheduling engine for one session. Construct one per
// session; there is no shared package-level state.
type Engine struct {
	target   int
	source   ExcerptSource
	logger   *slog.Logger
	metrics  *metrics.Feed
	randPick func(n int) int

	mu          sync.Mutex
	initialized bool
	closed      bool
	prefs       domain.Preferences
	pools       map[domain.CardKind][]domain.Card
	enabled     []domain.CardKind
	cursor      int
	seen        map[domain.CardKind]map[string]struct{}
	preparing   map[cardKey]struct{}
	ready       []domain.Card
	epoch       uint64
	listeners   map[uuid.UUID]Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine that hydrates cards through source.
func NewEngine(source ExcerptSource, cfg Config, logger *slog.Logger) *Engine {
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = DefaultTargetSize
	}
	if cfg.RandPick == nil {
		cfg.RandPick = rand.IntN
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		target:    cfg.TargetSize,
		source:    source,
		logger:    logger.With(slog.String("component", "feed_engine")),
		metrics:   cfg.Metrics,
		randPick:  cfg.RandPick,
		pools:     make(map[domain.CardKind][]domain.Card),
		seen:      make(map[domain.CardKind]map[string]struct{}),
		preparing: make(map[cardKey]struct{}),
		listeners: make(map[uuid.UUID]Listener),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Initialize installs the card pools and preferences and starts filling the
// ready queue. Memes and comments arrive pre-hydrated and are merged into
// the pool map under their own kinds.
func (e *Engine) Initialize(
	pools map[domain.CardKind][]domain.Card,
	memeCards []domain.Card,
	commentCards []domain.Card,
	prefs domain.Preferences,
) {
	e.mu.Lock()
	e.setPoolsLocked(pools, memeCards, commentCards)
	e.prefs = prefs
	e.seen = make(map[domain.CardKind]map[string]struct{})
	e.preparing = make(map[cardKey]struct{})
	e.ready = nil
	e.cursor = 0
	e.initialized = true
	e.computeEnabledLocked()
	enabledCount := len(e.enabled)
	e.fillLocked()
	e.mu.Unlock()

	e.logger.Info("engine initialized",
		slog.Int("enabled_kinds", enabledCount),
		slog.Int("target_size", e.target))
}

// RefreshPools replaces the pool references in place after an upstream
// catalog change. The enabled-kind set is recomputed (a kind whose pool
// went from empty to populated becomes selectable) but nothing is reset or
// pruned: the preference flags did not change.
func (e *Engine) RefreshPools(
	pools map[domain.CardKind][]domain.Card,
	memeCards []domain.Card,
	commentCards []domain.Card,
) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	e.setPoolsLocked(pools, memeCards, commentCards)
	e.computeEnabledLocked()
	e.fillLocked()
}

// GetReadyQueue returns a snapshot copy of the ready queue.
func (e *Engine) GetReadyQueue() []domain.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// ShiftCard pops and returns the head of the ready queue, marking it seen.
// Returns nil when the queue is empty; callers substitute the loading card.
func (e *Engine) ShiftCard() *domain.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.ready) == 0 {
		return nil
	}
	card := e.ready[0]
	e.ready = e.ready[1:]
	e.markSeenLocked(card.Kind, card.ID)
	e.metrics.SetDepth(len(e.ready), len(e.preparing))
	return &card
}

// OnCardDisplayed is the demand signal: every consumer-observed display
// triggers exactly one refill pass. At the cap it starts no hydrations.
func (e *Engine) OnCardDisplayed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	e.fillLocked()
}

// Subscribe registers a listener for ready-queue changes and returns its
// unsubscribe function.
func (e *Engine) Subscribe(l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	token := uuid.New()
	e.listeners[token] = l
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, token)
	}
}

// HasEnabledContent reports whether any kind is both flag-enabled and backed
// by a non-empty pool. False means the engine performs no work until
// preferences or pools change.
func (e *Engine) HasEnabledContent() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.enabled) > 0
}

// IsReady reports whether the engine has been initialized and holds at
// least one hydrated card. Initialized-but-never-ready is how exhausted
// content surfaces to the consumer.
func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized && len(e.ready) > 0
}

// Close stops the engine and waits for in-flight hydrations to drain.
// Their results are discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) setPoolsLocked(
	pools map[domain.CardKind][]domain.Card,
	memeCards []domain.Card,
	commentCards []domain.Card,
) {
	merged := make(map[domain.CardKind][]domain.Card, len(pools)+2)
	for kind, cards := range pools {
		merged[kind] = cards
	}
	merged[domain.KindMeme] = memeCards
	merged[domain.KindComment] = commentCards
	e.pools = merged
}

// computeEnabledLocked derives the round-robin selection order: kinds with
// the preference flag on and a non-empty pool, in canonical order.
func (e *Engine) computeEnabledLocked() {
	e.enabled = e.enabled[:0]
	for _, kind := range e.prefs.EnabledKinds() {
		if len(e.pools[kind]) > 0 {
			e.enabled = append(e.enabled, kind)
		}
	}
	if len(e.enabled) == 0 {
		e.cursor = 0
	} else {
		e.cursor %= len(e.enabled)
	}
}

func (e *Engine) markSeenLocked(kind domain.CardKind, id string) {
	set := e.seen[kind]
	if set == nil {
		set = make(map[string]struct{})
		e.seen[kind] = set
	}
	set[id] = struct{}{}
}

func (e *Engine) snapshotLocked() []domain.Card {
	snapshot := make([]domain.Card, len(e.ready))
	copy(snapshot, e.ready)
	return snapshot
}

// listenersAndSnapshotLocked copies both so listeners can be invoked after
// the lock is released.
func (e *Engine) listenersAndSnapshotLocked() ([]Listener, []domain.Card) {
	if len(e.listeners) == 0 {
		return nil, nil
	}
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	return ls, e.snapshotLocked()
}

func notify(listeners []Listener, snapshot []domain.Card) {
	for _, l := range listeners {
		l(snapshot)
	}
}
