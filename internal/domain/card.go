package domain

import (
	"errors"
	"strings"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardKindInvalid is returned when a card carries an unknown kind.
	ErrCardKindInvalid = errors.New("card kind is not recognized")

	// ErrCardTitleEmpty is returned when a card's title is empty.
	ErrCardTitleEmpty = errors.New("card title cannot be empty")

	// ErrCardSlugEmpty is returned when a topic card has no slug.
	ErrCardSlugEmpty = errors.New("topic card slug cannot be empty")

	// ErrCardBodyEmpty is returned when a card that ships its own display
	// text (meme, comment, author) has none.
	ErrCardBodyEmpty = errors.New("card body cannot be empty")
)

// CardKind identifies the variant of a feed card.
type CardKind string

// All card kinds known to the feed. Loading is reserved for the
// fast-scroll placeholder and never appears in a pool.
const (
	KindText       CardKind = "text"
	KindCommentary CardKind = "commentary"
	KindGenre      CardKind = "genre"
	KindTopic      CardKind = "topic"
	KindAuthor     CardKind = "author"
	KindMeme       CardKind = "meme"
	KindComment    CardKind = "comment"
	KindLoading    CardKind = "loading"
)

// PoolKinds is the canonical ordering of kinds that can appear in a card
// pool. Round-robin selection order and pool iteration both follow it.
var PoolKinds = []CardKind{
	KindText,
	KindCommentary,
	KindGenre,
	KindTopic,
	KindAuthor,
	KindMeme,
	KindComment,
}

// Card is a single feed item. ID is stable and unique within the card's
// kind, not globally. Excerpt is populated by hydration for the kinds that
// fetch one; memes, comments, and authors arrive complete from the catalog.
type Card struct {
	Kind    CardKind `json:"kind"`
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Slug    string   `json:"slug,omitempty"`    // topic kind
	Books   []string `json:"books,omitempty"`   // genre kind: contained book titles
	Body    string   `json:"body,omitempty"`    // meme caption, comment text, author bio
	Excerpt string   `json:"excerpt,omitempty"` // attached by hydration
}

// Validate checks the card's kind-specific required fields.
// Returns a sentinel error naming the first missing field.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrCardIDEmpty
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrCardTitleEmpty
	}

	switch c.Kind {
	case KindText, KindCommentary, KindGenre, KindLoading:
		return nil
	case KindTopic:
		if strings.TrimSpace(c.Slug) == "" {
			return ErrCardSlugEmpty
		}
		return nil
	case KindAuthor, KindMeme, KindComment:
		if strings.TrimSpace(c.Body) == "" {
			return ErrCardBodyEmpty
		}
		return nil
	default:
		return ErrCardKindInvalid
	}
}

// LoadingCard returns the reserved placeholder card the presentation layer
// shows when the ready queue is drained faster than hydration can fill it.
func LoadingCard() Card {
	return Card{
		Kind:  KindLoading,
		ID:    "loading",
		Title: "Finding something good...",
	}
}
