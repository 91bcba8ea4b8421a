// Package analytics records view events to Postgres when a database is
// configured. It observes the catalogue but never mutates it; the
// display-only view counts in the catalogue snapshot stay as seeded.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/geoip"
	"github.com/clipreel/clipreel/internal/httputil"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Config struct {
	DB                DBTX
	Store             *catalog.Store
	Geo               *geoip.Resolver
	SessionSecret     string
	StatsPasswordHash string // bcrypt hash; empty disables /api/stats
}

type Handler struct {
	db        DBTX
	store     *catalog.Store
	geo       *geoip.Resolver
	secret    string
	statsHash string
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		db:        cfg.DB,
		store:     cfg.Store,
		geo:       cfg.Geo,
		secret:    cfg.SessionSecret,
		statsHash: cfg.StatsPasswordHash,
	}
}

type viewRequest struct {
	VideoID int `json:"videoId"`
}

// RecordView stores one view event. The viewer session cookie distinguishes
// unique views; the event row itself is append-only.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.VideoID == 0 {
		httputil.WriteFailure(w, http.StatusBadRequest, "Video ID required")
		return
	}
	if _, err := h.store.Find(req.VideoID); err != nil {
		httputil.WriteFailure(w, http.StatusNotFound, "Video not found")
		return
	}

	sessionID := h.ensureSession(w, r)

	ip := clientIP(r)
	ua := useragent.New(r.UserAgent())
	browser, _ := ua.Browser()
	device := "desktop"
	switch {
	case ua.Bot():
		device = "bot"
	case ua.Mobile():
		device = "mobile"
	}
	loc := h.geo.Lookup(ip)

	_, err := h.db.Exec(r.Context(),
		`INSERT INTO view_events (id, video_id, session_id, viewer_hash, browser, device, country, city)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), req.VideoID, sessionID, viewerHash(ip, r.UserAgent()),
		browser, device, loc.Country, loc.City,
	)
	if err != nil {
		slog.Error("analytics: failed to record view", "video_id", req.VideoID, "error", err)
		httputil.WriteFailure(w, http.StatusInternalServerError, "Server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type videoStats struct {
	VideoID     int   `json:"videoId"`
	Views       int64 `json:"views"`
	UniqueViews int64 `json:"uniqueViews"`
}

type breakdownItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type statsResponse struct {
	Success     bool            `json:"success"`
	TotalViews  int64           `json:"totalViews"`
	UniqueViews int64           `json:"uniqueViews"`
	Videos      []videoStats    `json:"videos"`
	Browsers    []breakdownItem `json:"browsers"`
	Devices     []breakdownItem `json:"devices"`
}

// Stats reports view totals. Guarded by a bcrypt-checked password supplied
// in the X-Stats-Password header.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.statsHash == "" {
		httputil.WriteFailure(w, http.StatusNotFound, "Stats not enabled")
		return
	}
	password := r.Header.Get("X-Stats-Password")
	if bcrypt.CompareHashAndPassword([]byte(h.statsHash), []byte(password)) != nil {
		httputil.WriteFailure(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	resp := statsResponse{
		Success:  true,
		Videos:   []videoStats{},
		Browsers: []breakdownItem{},
		Devices:  []breakdownItem{},
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT video_id, COUNT(*), COUNT(DISTINCT session_id)
		 FROM view_events GROUP BY video_id ORDER BY video_id`)
	if err != nil {
		slog.Error("analytics: stats query failed", "error", err)
		httputil.WriteFailure(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var vs videoStats
		if err := rows.Scan(&vs.VideoID, &vs.Views, &vs.UniqueViews); err != nil {
			httputil.WriteFailure(w, http.StatusInternalServerError, "Server error")
			return
		}
		resp.TotalViews += vs.Views
		resp.UniqueViews += vs.UniqueViews
		resp.Videos = append(resp.Videos, vs)
	}
	if rows.Err() != nil {
		httputil.WriteFailure(w, http.StatusInternalServerError, "Server error")
		return
	}

	resp.Browsers, err = h.breakdown(r.Context(), "browser")
	if err != nil {
		httputil.WriteFailure(w, http.StatusInternalServerError, "Server error")
		return
	}
	resp.Devices, err = h.breakdown(r.Context(), "device")
	if err != nil {
		httputil.WriteFailure(w, http.StatusInternalServerError, "Server error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) breakdown(ctx context.Context, column string) ([]breakdownItem, error) {
	// column is one of two compile-time constants, never caller input.
	rows, err := h.db.Query(ctx, fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM view_events GROUP BY %s ORDER BY COUNT(*) DESC LIMIT 10`,
		column, column))
	if err != nil {
		return nil, fmt.Errorf("breakdown by %s: %w", column, err)
	}
	defer rows.Close()

	items := []breakdownItem{}
	for rows.Next() {
		var item breakdownItem
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func viewerHash(ip, ua string) string {
	sum := sha256.Sum256([]byte(ip + "|" + ua))
	return fmt.Sprintf("%x", sum[:8])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
