// Package engagement exposes the HTTP surface for the video catalogue and
// its like/share/comment counters.
package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/httputil"
)

// UnknownPlatform is the marker used in share messages when the client did
// not name a platform.
const UnknownPlatform = "unknown platform"

// MediaResolver rewrites a catalogue media locator into a playable URL.
// Locators the resolver does not recognize pass through unchanged.
type MediaResolver interface {
	ResolvePlaybackURL(ctx context.Context, locator string) (string, error)
}

type Handler struct {
	store    *catalog.Store
	resolver MediaResolver
}

func NewHandler(store *catalog.Store, resolver MediaResolver) *Handler {
	return &Handler{store: store, resolver: resolver}
}

type listResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Videos  []catalog.Video `json:"videos"`
}

type likeRequest struct {
	VideoID json.RawMessage `json:"videoId"`
}

type likeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	VideoID int    `json:"videoId"`
	Likes   int    `json:"likes"`
}

type shareRequest struct {
	VideoID  json.RawMessage `json:"videoId"`
	Platform string          `json:"platform"`
}

type shareResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	VideoID int    `json:"videoId"`
	Shares  int    `json:"shares"`
}

type commentRequest struct {
	VideoID json.RawMessage `json:"videoId"`
	Comment string          `json:"comment"`
}

type commentResponse struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Comment       catalog.Comment `json:"comment"`
	TotalComments int             `json:"totalComments"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	videos := h.store.List()

	if h.resolver != nil {
		for i := range videos {
			resolved, err := h.resolver.ResolvePlaybackURL(r.Context(), videos[i].VideoURL)
			if err != nil {
				// The catalogue listing never fails over a single locator;
				// the raw locator is served instead.
				slog.Error("engagement: media URL resolution failed",
					"video_id", videos[i].ID, "error", err)
				continue
			}
			videos[i].VideoURL = resolved
		}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Success: true,
		Count:   len(videos),
		Videos:  videos,
	})
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, present := videoID(req.VideoID)
	if !present {
		httputil.WriteFailure(w, http.StatusBadRequest, "Video ID required")
		return
	}

	likes, err := h.store.Like(id)
	if err != nil {
		httputil.WriteFailure(w, http.StatusNotFound, "Video not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, likeResponse{
		Success: true,
		Message: "Video liked successfully",
		VideoID: id,
		Likes:   likes,
	})
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, present := videoID(req.VideoID)
	if !present {
		httputil.WriteFailure(w, http.StatusBadRequest, "Video ID required")
		return
	}

	shares, err := h.store.Share(id)
	if err != nil {
		httputil.WriteFailure(w, http.StatusNotFound, "Video not found")
		return
	}

	platform := req.Platform
	if platform == "" {
		platform = UnknownPlatform
	}

	httputil.WriteJSON(w, http.StatusOK, shareResponse{
		Success: true,
		Message: fmt.Sprintf("Video shared on %s", platform),
		VideoID: id,
		Shares:  shares,
	})
}

func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, present := videoID(req.VideoID)
	if !present || req.Comment == "" {
		httputil.WriteFailure(w, http.StatusBadRequest, "Video ID and comment required")
		return
	}

	comment, total, err := h.store.AddComment(id, req.Comment)
	if err != nil {
		httputil.WriteFailure(w, http.StatusNotFound, "Video not found")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, commentResponse{
		Success:       true,
		Message:       "Comment added successfully",
		Comment:       comment,
		TotalComments: total,
	})
}

// videoID coerces the raw videoId field. Absent, null, empty-string, zero
// and false values count as missing. Strings coerce through their leading
// numeric prefix ("7abc" is video 7); anything without one yields an id
// that matches no video, so the lookup reports not-found rather than a
// distinct error.
func videoID(raw json.RawMessage) (id int, present bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == "false" {
		return 0, false
	}

	var asNumber float64
	if err := json.Unmarshal(trimmed, &asNumber); err == nil {
		if asNumber == 0 {
			return 0, false
		}
		return int(asNumber), true
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if asString == "" {
			return 0, false
		}
		if n, ok := leadingInt(asString); ok {
			return n, true
		}
		return -1, true
	}

	return -1, true
}

// leadingInt parses an optionally signed run of leading digits, ignoring
// any trailing garbage.
func leadingInt(s string) (int, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, false
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0, false
	}
	return n, true
}
