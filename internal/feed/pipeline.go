package feed

import (
	"log/slog"

	"github.com/phrazzld/scroll-api/internal/domain"
	"github.com/phrazzld/scroll-api/internal/platform/metrics"
)

// fillLocked tops the in-flight window back up to the target size. Each
// started attempt occupies one preparing slot until its hydration commits.
func (e *Engine) fillLocked() {
	needed := e.target - len(e.ready) - len(e.preparing)
	for i := 0; i < needed; i++ {
		if !e.startOneLocked(nil) {
			break
		}
	}
}

// startOneLocked selects one card and launches its hydration. Returns false
// when no enabled kind has a candidate or the engine is shutting down; the
// engine then idles until a display, refresh, or preference change.
func (e *Engine) startOneLocked(skip map[cardKey]struct{}) bool {
	if e.closed {
		return false
	}
	card := e.pickNextCardLocked(skip)
	if card == nil {
		return false
	}
	e.preparing[cardKey{card.Kind, card.ID}] = struct{}{}
	e.metrics.SetDepth(len(e.ready), len(e.preparing))

	epoch := e.epoch
	e.wg.Add(1)
	go e.prepare(*card, epoch, skip)
	return true
}

// prepare runs outside the engine lock; the hydration call is the only
// suspension point in the pipeline.
func (e *Engine) prepare(card domain.Card, epoch uint64, skip map[cardKey]struct{}) {
	defer e.wg.Done()
	hydrated, ok := hydrate(e.ctx, e.source, card)
	e.commit(hydrated, ok, epoch, skip)
}

// commit applies a hydration result. A result whose epoch is stale (a full
// reset ran while it was in flight) is discarded unconditionally; this is
// the engine's only cancellation mechanism. An accepted card whose kind was
// disabled mid-flight by a partial prune is routed to the seen set so
// consumers never observe a disabled kind.
//
// On rejection the card id moves to the seen set and exactly one
// replacement selection is attempted, carrying the chain's skip set. The
// failed network call itself is never retried.
func (e *Engine) commit(card domain.Card, ok bool, epoch uint64, skip map[cardKey]struct{}) {
	key := cardKey{card.Kind, card.ID}

	e.mu.Lock()
	if epoch != e.epoch {
		e.mu.Unlock()
		e.metrics.ObserveHydration(string(card.Kind), metrics.OutcomeDiscarded)
		e.logger.Debug("discarding stale hydration result",
			slog.String("kind", string(card.Kind)),
			slog.String("card_id", card.ID),
			slog.Uint64("result_epoch", epoch))
		return
	}

	delete(e.preparing, key)

	var listeners []Listener
	var snapshot []domain.Card

	if ok && e.kindEnabledLocked(card.Kind) {
		e.ready = append(e.ready, card)
		e.metrics.ObserveHydration(string(card.Kind), metrics.OutcomeAccepted)
		listeners, snapshot = e.listenersAndSnapshotLocked()
	} else {
		e.markSeenLocked(card.Kind, card.ID)
		e.metrics.ObserveHydration(string(card.Kind), metrics.OutcomeRejected)
		e.logger.Debug("hydration rejected, selecting replacement",
			slog.String("kind", string(card.Kind)),
			slog.String("card_id", card.ID))
		if skip == nil {
			skip = make(map[cardKey]struct{})
		}
		skip[key] = struct{}{}
		e.startOneLocked(skip)
	}
	e.metrics.SetDepth(len(e.ready), len(e.preparing))
	e.mu.Unlock()

	notify(listeners, snapshot)
}

func (e *Engine) kindEnabledLocked(kind domain.CardKind) bool {
	for _, k := range e.enabled {
		if k == kind {
			return true
		}
	}
	return false
}
