package domain

// Preferences is the fixed set of boolean feed flags a user controls.
// One flag can enable more than one card kind: Topics turns on both the
// topic and author kinds, since author spotlights are curated under the
// topics umbrella upstream.
type Preferences struct {
	Texts      bool `json:"texts"      mapstructure:"texts"`
	Commentary bool `json:"commentary" mapstructure:"commentary"`
	Genres     bool `json:"genres"     mapstructure:"genres"`
	Topics     bool `json:"topics"     mapstructure:"topics"`
	Memes      bool `json:"memes"      mapstructure:"memes"`
	Comments   bool `json:"comments"   mapstructure:"comments"`
}

// DefaultPreferences returns the out-of-the-box flag set: everything on.
func DefaultPreferences() Preferences {
	return Preferences{
		Texts:      true,
		Commentary: true,
		Genres:     true,
		Topics:     true,
		Memes:      true,
		Comments:   true,
	}
}

// EnabledKinds maps the flag set to the card kinds it turns on,
// in PoolKinds order. Pool contents are not consulted here; an enabled
// kind with an empty pool is filtered later when selection order is built.
func (p Preferences) EnabledKinds() []CardKind {
	var kinds []CardKind
	for _, k := range PoolKinds {
		if p.kindEnabled(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (p Preferences) kindEnabled(k CardKind) bool {
	switch k {
	case KindText:
		return p.Texts
	case KindCommentary:
		return p.Commentary
	case KindGenre:
		return p.Genres
	case KindTopic, KindAuthor:
		return p.Topics
	case KindMeme:
		return p.Memes
	case KindComment:
		return p.Comments
	default:
		return false
	}
}
