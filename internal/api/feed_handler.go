// Package api provides HTTP handlers for the feed API.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/scroll-api/internal/api/shared"
	"github.com/phrazzld/scroll-api/internal/domain"
	"github.com/phrazzld/scroll-api/internal/feed"
)

// FeedEngine is the slice of the engine's consumer API the HTTP layer uses.
type FeedEngine interface {
	GetReadyQueue() []domain.Card
	ShiftCard() *domain.Card
	OnCardDisplayed()
	OnPreferencesChange(domain.Preferences)
	Subscribe(feed.Listener) func()
	HasEnabledContent() bool
	IsReady() bool
}

// FeedHandler handles feed-related HTTP requests.
type FeedHandler struct {
	engine   FeedEngine
	logger   *slog.Logger
	validate *validator.Validate
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(engine FeedEngine, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for FeedHandler")
	}
	return &FeedHandler{
		engine:   engine,
		logger:   logger.With(slog.String("component", "feed_handler")),
		validate: validator.New(),
	}
}

// FeedResponse is the ready-queue snapshot returned to consumers.
type FeedResponse struct {
	Ready             bool          `json:"ready"`
	HasEnabledContent bool          `json:"has_enabled_content"`
	Cards             []domain.Card `json:"cards"`
}

// NextCardResponse wraps a shifted card. Placeholder is true when the queue
// was empty and the loading sentinel was substituted; the client appends it
// and swaps it for the real card on the next feed event.
type NextCardResponse struct {
	Card        domain.Card `json:"card"`
	Placeholder bool        `json:"placeholder"`
}

// GetFeed handles GET /api/feed requests.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	cards := h.engine.GetReadyQueue()
	if cards == nil {
		cards = []domain.Card{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, FeedResponse{
		Ready:             h.engine.IsReady(),
		HasEnabledContent: h.engine.HasEnabledContent(),
		Cards:             cards,
	})
}

// NextCard handles POST /api/feed/next requests. An empty ready queue is
// not an error: the consumer gets the loading placeholder so fast scrolling
// never blocks.
func (h *FeedHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	card := h.engine.ShiftCard()
	if card == nil {
		h.logger.Debug("ready queue empty, serving loading placeholder")
		shared.RespondWithJSON(w, r, http.StatusOK, NextCardResponse{
			Card:        domain.LoadingCard(),
			Placeholder: true,
		})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NextCardResponse{Card: *card})
}

// CardDisplayed handles POST /api/feed/displayed requests: the demand
// signal that triggers one refill pass.
func (h *FeedHandler) CardDisplayed(w http.ResponseWriter, r *http.Request) {
	h.engine.OnCardDisplayed()
	w.WriteHeader(http.StatusAccepted)
}

// UpdatePreferencesRequest is the body for PUT /api/preferences.
type UpdatePreferencesRequest struct {
	Preferences *domain.Preferences `json:"preferences" validate:"required"`
}

// UpdatePreferences handles PUT /api/preferences requests.
func (h *FeedHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing preferences")
		return
	}

	h.engine.OnPreferencesChange(*req.Preferences)
	h.logger.Info("preferences updated")
	w.WriteHeader(http.StatusNoContent)
}

// StreamEvents handles GET /api/feed/events requests with a server-sent
// event stream: one `feed` event per ready-queue change, carrying the
// snapshot. The initial state is sent immediately on connect.
func (h *FeedHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Buffered so a slow client drops intermediate snapshots instead of
	// blocking the engine's notifier.
	events := make(chan []domain.Card, 8)
	unsubscribe := h.engine.Subscribe(func(snapshot []domain.Card) {
		select {
		case events <- snapshot:
		default:
		}
	})
	defer unsubscribe()

	if err := writeFeedEvent(w, h.engine.GetReadyQueue()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot := <-events:
			if err := writeFeedEvent(w, snapshot); err != nil {
				h.logger.Debug("dropping event stream client", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeFeedEvent(w http.ResponseWriter, snapshot []domain.Card) error {
	if snapshot == nil {
		snapshot = []domain.Card{}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: feed\ndata: %s\n\n", payload)
	return err
}
