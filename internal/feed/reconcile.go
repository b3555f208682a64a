package feed

import (
	"log/slog"

	"github.com/phrazzld/scroll-api/internal/domain"
	"github.com/phrazzld/scroll-api/internal/platform/metrics"
)

// OnPreferencesChange applies a new flag set. The decision is made on the
// flag→kind mapping alone; pool emptiness never influences it.
//
// Any kind newly turned on forces a full reset: seen sets, preparing set,
// and ready queue are cleared and the epoch is bumped so in-flight results
// are discarded. Re-admitting a kind without resetting would under-represent
// it relative to kinds that were never disabled.
//
// Kinds only turned off take the cheaper path: disabled kinds are pruned
// from the ready queue (preserving relative order) and the freed slots are
// refilled. Other kinds keep their seen and preparing state.
//
// No kind change at all (pool content refreshed in place) changes nothing.
func (e *Engine) OnPreferencesChange(prefs domain.Preferences) {
	e.mu.Lock()
	if !e.initialized {
		e.prefs = prefs
		e.mu.Unlock()
		return
	}

	oldEnabled := kindSet(e.prefs.EnabledKinds())
	newEnabled := kindSet(prefs.EnabledKinds())
	e.prefs = prefs

	added := subtract(newEnabled, oldEnabled)
	removed := subtract(oldEnabled, newEnabled)

	var listeners []Listener
	var snapshot []domain.Card

	switch {
	case len(added) > 0:
		e.fullResetLocked()
		listeners, snapshot = e.listenersAndSnapshotLocked()
		e.metrics.ObserveReset(metrics.ModeFullReset)
		e.logger.Info("preferences re-enabled a kind, full reset",
			slog.Int("added_kinds", len(added)),
			slog.Uint64("epoch", e.epoch))

	case len(removed) > 0:
		e.pruneLocked(removed)
		listeners, snapshot = e.listenersAndSnapshotLocked()
		e.metrics.ObserveReset(metrics.ModePartialPrune)
		e.logger.Info("preferences disabled a kind, pruned ready queue",
			slog.Int("removed_kinds", len(removed)))

	default:
		e.computeEnabledLocked()
	}
	e.mu.Unlock()

	notify(listeners, snapshot)
}

// fullResetLocked returns the engine to a blank session against the current
// pools: everything forgotten, epoch bumped, window refilled.
func (e *Engine) fullResetLocked() {
	e.seen = make(map[domain.CardKind]map[string]struct{})
	e.preparing = make(map[cardKey]struct{})
	e.ready = nil
	e.epoch++
	e.cursor = 0
	e.computeEnabledLocked()
	e.fillLocked()
}

// pruneLocked drops ready cards of the removed kinds, preserving the
// relative order of the survivors, then refills the freed slots. Seen and
// preparing state for still-enabled kinds is untouched.
func (e *Engine) pruneLocked(removed map[domain.CardKind]struct{}) {
	kept := e.ready[:0]
	for _, card := range e.ready {
		if _, gone := removed[card.Kind]; !gone {
			kept = append(kept, card)
		}
	}
	e.ready = kept
	e.computeEnabledLocked()
	e.fillLocked()
	e.metrics.SetDepth(len(e.ready), len(e.preparing))
}

func kindSet(kinds []domain.CardKind) map[domain.CardKind]struct{} {
	set := make(map[domain.CardKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

func subtract(a, b map[domain.CardKind]struct{}) map[domain.CardKind]struct{} {
	diff := make(map[domain.CardKind]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			diff[k] = struct{}{}
		}
	}
	return diff
}
