// Package excerpt is the HTTP client for the excerpt service, the external
// collaborator that hydrates feed cards with display excerpts.
package excerpt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client fetches excerpts over HTTP. A not-found or empty result is
// reported as an empty excerpt with a nil error; the feed engine decides
// per kind whether that rejects the card.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the excerpt service at baseURL. A zero
// timeout means requests are never timed out client-side; a hung call then
// occupies one of the engine's hydration slots indefinitely, which is the
// documented trade-off of the no-timeout default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "excerpt_client")),
	}
}

type excerptResponse struct {
	Excerpt string `json:"excerpt"`
}

// ExcerptByTitle looks up an excerpt for a work by its title.
func (c *Client) ExcerptByTitle(ctx context.Context, title string) (string, error) {
	u := fmt.Sprintf("%s/excerpts?title=%s", c.baseURL, url.QueryEscape(title))
	return c.fetch(ctx, u)
}

// ExcerptBySlug looks up an excerpt for a topic by its slug.
func (c *Client) ExcerptBySlug(ctx context.Context, slug string) (string, error) {
	u := fmt.Sprintf("%s/topics/%s/excerpt", c.baseURL, url.PathEscape(slug))
	return c.fetch(ctx, u)
}

func (c *Client) fetch(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build excerpt request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("excerpt request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Debug("excerpt lookup failed",
			slog.String("url", u),
			slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("excerpt service returned status %d", resp.StatusCode)
	}

	var body excerptResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode excerpt response: %w", err)
	}
	return body.Excerpt, nil
}
