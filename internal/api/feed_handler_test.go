package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scroll-api/internal/domain"
	"github.com/phrazzld/scroll-api/internal/feed"
)

// mockEngine implements FeedEngine with scripted responses.
type mockEngine struct {
	mu             sync.Mutex
	queue          []domain.Card
	shiftResult    *domain.Card
	displayedCalls int
	lastPrefs      *domain.Preferences
	listener       feed.Listener
	ready          bool
	hasContent     bool
}

func (m *mockEngine) GetReadyQueue() []domain.Card { return m.queue }
func (m *mockEngine) ShiftCard() *domain.Card      { return m.shiftResult }
func (m *mockEngine) OnCardDisplayed()             { m.displayedCalls++ }
func (m *mockEngine) OnPreferencesChange(p domain.Preferences) {
	m.lastPrefs = &p
}
func (m *mockEngine) Subscribe(l feed.Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.listener = nil
	}
}

func (m *mockEngine) notify(snapshot []domain.Card) bool {
	m.mu.Lock()
	l := m.listener
	m.mu.Unlock()
	if l == nil {
		return false
	}
	l(snapshot)
	return true
}
func (m *mockEngine) HasEnabledContent() bool { return m.hasContent }
func (m *mockEngine) IsReady() bool           { return m.ready }

func newTestHandler(engine *mockEngine) *FeedHandler {
	return NewFeedHandler(engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetFeed(t *testing.T) {
	engine := &mockEngine{
		queue: []domain.Card{
			{Kind: domain.KindText, ID: "text-1", Title: "The Trial", Excerpt: "..."},
		},
		ready:      true,
		hasContent: true,
	}
	handler := newTestHandler(engine)

	rec := httptest.NewRecorder()
	handler.GetFeed(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	assert.True(t, resp.HasEnabledContent)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, "text-1", resp.Cards[0].ID)
}

func TestNextCard(t *testing.T) {
	t.Run("returns head of queue", func(t *testing.T) {
		card := domain.Card{Kind: domain.KindText, ID: "text-1", Title: "The Trial"}
		handler := newTestHandler(&mockEngine{shiftResult: &card})

		rec := httptest.NewRecorder()
		handler.NextCard(rec, httptest.NewRequest(http.MethodPost, "/api/feed/next", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp NextCardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Placeholder)
		assert.Equal(t, "text-1", resp.Card.ID)
	})

	t.Run("empty queue serves loading placeholder", func(t *testing.T) {
		handler := newTestHandler(&mockEngine{})

		rec := httptest.NewRecorder()
		handler.NextCard(rec, httptest.NewRequest(http.MethodPost, "/api/feed/next", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp NextCardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Placeholder)
		assert.Equal(t, domain.KindLoading, resp.Card.Kind)
	})
}

func TestCardDisplayed(t *testing.T) {
	engine := &mockEngine{}
	handler := newTestHandler(engine)

	rec := httptest.NewRecorder()
	handler.CardDisplayed(rec, httptest.NewRequest(http.MethodPost, "/api/feed/displayed", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, engine.displayedCalls)
}

func TestStreamEvents(t *testing.T) {
	engine := &mockEngine{
		queue: []domain.Card{{Kind: domain.KindText, ID: "text-1", Title: "The Trial"}},
	}
	handler := newTestHandler(engine)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/feed/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.StreamEvents(rec, req)
	}()

	// The subscription is registered before the initial snapshot is sent;
	// wait for it, push one update, then hang up.
	require.Eventually(t, func() bool {
		return engine.notify([]domain.Card{
			{Kind: domain.KindText, ID: "text-1", Title: "The Trial"},
			{Kind: domain.KindTopic, ID: "absurdism", Title: "Absurdism", Slug: "absurdism"},
		})
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: feed")
	assert.Contains(t, body, `"text-1"`)
	assert.Contains(t, body, `"absurdism"`)
}

func TestUpdatePreferences(t *testing.T) {
	t.Run("valid body reaches the engine", func(t *testing.T) {
		engine := &mockEngine{}
		handler := newTestHandler(engine)

		body := bytes.NewBufferString(`{"preferences": {"texts": true, "topics": true}}`)
		rec := httptest.NewRecorder()
		handler.UpdatePreferences(rec, httptest.NewRequest(http.MethodPut, "/api/preferences", body))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, engine.lastPrefs)
		assert.True(t, engine.lastPrefs.Texts)
		assert.True(t, engine.lastPrefs.Topics)
		assert.False(t, engine.lastPrefs.Memes)
	})

	t.Run("missing preferences object", func(t *testing.T) {
		engine := &mockEngine{}
		handler := newTestHandler(engine)

		body := bytes.NewBufferString(`{}`)
		rec := httptest.NewRecorder()
		handler.UpdatePreferences(rec, httptest.NewRequest(http.MethodPut, "/api/preferences", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, engine.lastPrefs)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		handler := newTestHandler(&mockEngine{})

		body := bytes.NewBufferString(`{"preferences": `)
		rec := httptest.NewRecorder()
		handler.UpdatePreferences(rec, httptest.NewRequest(http.MethodPut, "/api/preferences", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
