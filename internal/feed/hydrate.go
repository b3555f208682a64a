package feed

import (
	"context"

	"github.com/phrazzld/scroll-api/internal/domain"
)

// ExcerptSource fetches display excerpts from the excerpt service.
// An empty excerpt with a nil error means the service had nothing for the
// lookup; whether that rejects the card depends on its kind.
type ExcerptSource interface {
	// ExcerptByTitle looks up an excerpt for a work by its title.
	ExcerptByTitle(ctx context.Context, title string) (string, error)

	// ExcerptBySlug looks up an excerpt for a topic by its slug.
	ExcerptBySlug(ctx context.Context, slug string) (string, error)
}

// hydrate attaches the kind-appropriate payload to card and reports whether
// the card is accepted. The accept/reject rules are deliberately asymmetric
// and must not be unified:
//
//   - text, commentary: an excerpt is required; a fetch error or empty
//     excerpt rejects the card.
//   - topic: the excerpt is attached when available but the card is
//     accepted either way, even on a fetch error.
//   - genre: optionally borrows an excerpt from its first contained book;
//     accepted regardless.
//   - author, meme, comment: already complete, synchronous validity check
//     only.
func hydrate(ctx context.Context, source ExcerptSource, card domain.Card) (domain.Card, bool) {
	switch card.Kind {
	case domain.KindText, domain.KindCommentary:
		excerpt, err := source.ExcerptByTitle(ctx, card.Title)
		if err != nil || excerpt == "" {
			return card, false
		}
		card.Excerpt = excerpt
		return card, true

	case domain.KindTopic:
		excerpt, err := source.ExcerptBySlug(ctx, card.Slug)
		if err == nil {
			card.Excerpt = excerpt
		}
		return card, true

	case domain.KindGenre:
		if len(card.Books) > 0 {
			if excerpt, err := source.ExcerptByTitle(ctx, card.Books[0]); err == nil {
				card.Excerpt = excerpt
			}
		}
		return card, true

	case domain.KindAuthor, domain.KindMeme, domain.KindComment:
		return card, card.Validate() == nil

	default:
		return card, false
	}
}
