// Package engage is the client half of the engagement protocol: it issues
// like/share/comment calls against the API and keeps the per-video UI
// counters reconciled with the server's authoritative values.
package engage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/clipreel/clipreel/internal/catalog"
)

// Clipboard is supplied by the embedding UI; Copy places text on the
// viewer's clipboard.
type Clipboard interface {
	Copy(text string) error
}

// Notifier surfaces user-visible notices (failure toasts, copy
// confirmations).
type Notifier interface {
	Notify(message string)
}

// UIState mirrors the engagement controls for the currently bound video.
// Counters start from the last known catalogue snapshot and are replaced
// by server values on each successful mutation; failures leave them
// untouched.
type UIState struct {
	VideoID       int
	Likes         int
	Shares        int
	HasLiked      bool
	ShareMenuOpen bool
}

type Config struct {
	BaseURL    string // engagement API origin, also used for deep links
	HTTPClient *http.Client
	Clipboard  Clipboard
	Notifier   Notifier
}

type Client struct {
	baseURL   string
	http      *http.Client
	clipboard Clipboard
	notifier  Notifier

	mu          sync.Mutex
	bindGen     uint64
	state       UIState
	likePending bool
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		http:      httpClient,
		clipboard: cfg.Clipboard,
		notifier:  cfg.Notifier,
	}
}

// Bind resets the UI state from a catalogue snapshot. Any response still in
// flight for the previously bound video is discarded when it lands.
func (c *Client) Bind(v catalog.Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindGen++
	c.likePending = false
	c.state = UIState{VideoID: v.ID, Likes: v.Likes, Shares: v.Shares}
}

func (c *Client) State() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) OpenShareMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShareMenuOpen = true
}

func (c *Client) CloseShareMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShareMenuOpen = false
}

type likeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Likes   int    `json:"likes"`
}

type shareResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Shares  int    `json:"shares"`
}

type commentResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Comment       catalog.Comment `json:"comment"`
	TotalComments int             `json:"totalComments"`
}

// Like submits one like for the bound video. A video already liked this
// session, or a like still pending, suppresses the call entirely. Failures
// leave the counter untouched and raise a notice; retry is the user
// clicking again.
func (c *Client) Like(ctx context.Context) error {
	c.mu.Lock()
	if c.state.HasLiked || c.likePending {
		c.mu.Unlock()
		return nil
	}
	c.likePending = true
	videoID := c.state.VideoID
	gen := c.bindGen
	c.mu.Unlock()

	var result likeResult
	err := c.post(ctx, "/api/like", map[string]any{"videoId": videoID}, &result)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.bindGen {
		return nil // response for a since-superseded video
	}
	c.likePending = false

	if err != nil || !result.Success {
		c.notify("Unable to like the video. Please try again.")
		if err != nil {
			return fmt.Errorf("like video %d: %w", videoID, err)
		}
		return fmt.Errorf("like video %d: %s", videoID, result.Message)
	}

	c.state.Likes = result.Likes
	c.state.HasLiked = true
	return nil
}

// Share submits a share for the bound video. The deep link is copied to
// the clipboard up front, independent of the network outcome. There is no
// share deduplication.
func (c *Client) Share(ctx context.Context, platform string) error {
	c.mu.Lock()
	videoID := c.state.VideoID
	gen := c.bindGen
	c.mu.Unlock()

	if c.clipboard != nil {
		if err := c.clipboard.Copy(fmt.Sprintf("%s/video/%d", c.baseURL, videoID)); err == nil {
			c.notify("Link copied!")
		}
	}

	payload := map[string]any{"videoId": videoID}
	if platform != "" {
		payload["platform"] = platform
	}
	var result shareResult
	err := c.post(ctx, "/api/share", payload, &result)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.bindGen {
		return nil
	}

	if err != nil || !result.Success {
		c.notify("Unable to share the video. Please try again.")
		if err != nil {
			return fmt.Errorf("share video %d: %w", videoID, err)
		}
		return fmt.Errorf("share video %d: %s", videoID, result.Message)
	}

	c.state.Shares = result.Shares
	c.state.ShareMenuOpen = false
	return nil
}

// Comment submits comment text for the bound video. There is no composing
// UI in this client; the embedding layer supplies the text.
func (c *Client) Comment(ctx context.Context, text string) (catalog.Comment, error) {
	if text == "" {
		return catalog.Comment{}, fmt.Errorf("comment text is required")
	}

	c.mu.Lock()
	videoID := c.state.VideoID
	c.mu.Unlock()

	var result commentResult
	err := c.post(ctx, "/api/comment", map[string]any{"videoId": videoID, "comment": text}, &result)
	if err != nil {
		return catalog.Comment{}, fmt.Errorf("comment on video %d: %w", videoID, err)
	}
	if !result.Success {
		return catalog.Comment{}, fmt.Errorf("comment on video %d: %s", videoID, result.Message)
	}
	return result.Comment, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) notify(message string) {
	if c.notifier != nil {
		c.notifier.Notify(message)
	}
}
