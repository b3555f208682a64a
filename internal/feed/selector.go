package feed

import "github.com/phrazzld/scroll-api/internal/domain"

// pickNextCardLocked chooses the next card to hydrate, or nil when no
// enabled kind has a candidate.
//
// The cursor advances exactly once per call regardless of outcome, which is
// what makes round-robin fair over the long run even when some kinds come
// up empty. Each enabled kind is tried at most once per call, starting at
// the pre-advance cursor position.
//
// skip holds ids that already failed hydration during the current
// replacement chain; they are never re-picked by that chain even after an
// exhaustion clear, so an all-failing pool cannot spin the pipeline forever.
func (e *Engine) pickNextCardLocked(skip map[cardKey]struct{}) *domain.Card {
	n := len(e.enabled)
	if n == 0 {
		return nil
	}

	start := e.cursor
	e.cursor = (e.cursor + 1) % n

	for off := 0; off < n; off++ {
		kind := e.enabled[(start+off)%n]
		if card := e.pickFromKindLocked(kind, skip); card != nil {
			return card
		}
	}
	return nil
}

// pickFromKindLocked selects a uniform-random candidate of the given kind:
// pool minus seen, minus in-flight, minus ready, minus the chain's skip
// set. When that leaves nothing, the kind's seen set is cleared and the
// pool is reconsidered excluding only in-flight/ready/skip: the session has
// exhausted the kind, so seen cards become candidates again.
func (e *Engine) pickFromKindLocked(kind domain.CardKind, skip map[cardKey]struct{}) *domain.Card {
	candidates := e.candidatesLocked(kind, true, skip)
	if len(candidates) == 0 {
		delete(e.seen, kind)
		candidates = e.candidatesLocked(kind, false, skip)
	}
	if len(candidates) == 0 {
		return nil
	}
	card := candidates[e.randPick(len(candidates))]
	return &card
}

func (e *Engine) candidatesLocked(
	kind domain.CardKind,
	excludeSeen bool,
	skip map[cardKey]struct{},
) []domain.Card {
	seen := e.seen[kind]
	var candidates []domain.Card
	for _, card := range e.pools[kind] {
		if excludeSeen {
			if _, ok := seen[card.ID]; ok {
				continue
			}
		}
		key := cardKey{kind, card.ID}
		if _, ok := e.preparing[key]; ok {
			continue
		}
		if _, ok := skip[key]; ok {
			continue
		}
		if e.inReadyLocked(key) {
			continue
		}
		candidates = append(candidates, card)
	}
	return candidates
}

func (e *Engine) inReadyLocked(key cardKey) bool {
	for _, card := range e.ready {
		if card.Kind == key.kind && card.ID == key.id {
			return true
		}
	}
	return false
}
