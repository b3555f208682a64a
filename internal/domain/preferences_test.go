package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferencesEnabledKinds(t *testing.T) {
	t.Run("all flags on", func(t *testing.T) {
		kinds := DefaultPreferences().EnabledKinds()
		assert.Equal(t, PoolKinds, kinds)
	})

	t.Run("no flags on", func(t *testing.T) {
		assert.Empty(t, Preferences{}.EnabledKinds())
	})

	t.Run("topics flag enables topic and author", func(t *testing.T) {
		prefs := Preferences{Topics: true}
		assert.Equal(t, []CardKind{KindTopic, KindAuthor}, prefs.EnabledKinds())
	})

	t.Run("single-kind flags", func(t *testing.T) {
		assert.Equal(t, []CardKind{KindText}, Preferences{Texts: true}.EnabledKinds())
		assert.Equal(t, []CardKind{KindMeme}, Preferences{Memes: true}.EnabledKinds())
	})

	t.Run("loading is never enabled", func(t *testing.T) {
		for _, k := range DefaultPreferences().EnabledKinds() {
			assert.NotEqual(t, KindLoading, k)
		}
	})
}
