// Package feed implements the feed scheduling engine: the component that
// decides which card to show next, hydrates it in the background, buffers a
// bounded lookahead window, and reconciles that buffer when preferences
// change.
//
// The engine serializes all state mutation behind a single mutex; hydration
// calls are the only operations that run outside it, as goroutines bounded
// by the target window size. A generation counter (epoch) is captured when
// each hydration starts and checked when it completes, so results started
// before a full reset are discarded rather than cancelled.
//
// The primary components are:
// - Engine: holds pools, seen sets, the preparing set, and the ready queue
// - selector: round-robin over enabled kinds, uniform-random within a kind
// - pipeline: backpressure accounting and the hydrate/commit path
// - reconciler: full-reset / partial-prune decision on preference change
package feed
