// Package domain contains the core entities of the feed: the Card variant,
// its per-kind validation rules, and the preference flags that gate which
// kinds are eligible for selection. It is independent of any delivery or
// storage mechanism.
package domain
