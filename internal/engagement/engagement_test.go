package engagement_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/engagement"
)

func newTestHandler(t *testing.T) *engagement.Handler {
	t.Helper()
	store, err := catalog.New([]catalog.Video{
		{ID: 7, Title: "Seven", VideoURL: "https://cdn.example.com/7.mp4", Likes: 3, Shares: 0,
			Comments: []catalog.Comment{
				{ID: 1, Text: "one", Timestamp: "2026-01-01T00:00:00Z"},
				{ID: 2, Text: "two", Timestamp: "2026-01-02T00:00:00Z"},
			}},
		{ID: 8, Title: "Eight", VideoURL: "s3://clips/8.mp4", Likes: 0, Shares: 0},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return engagement.NewHandler(store, nil)
}

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

// --- List ---

func TestListReturnsFullCatalogue(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Error("expected success=true")
	}
	if body["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", body["count"])
	}
	videos := body["videos"].([]any)
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
}

type staticResolver struct{ err error }

func (r *staticResolver) ResolvePlaybackURL(ctx context.Context, locator string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if strings.HasPrefix(locator, "s3://") {
		return "https://signed.example.com/" + strings.TrimPrefix(locator, "s3://"), nil
	}
	return locator, nil
}

func TestListResolvesMediaLocators(t *testing.T) {
	store, _ := catalog.New([]catalog.Video{{ID: 1, VideoURL: "s3://clips/1.mp4"}})
	h := engagement.NewHandler(store, &staticResolver{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	body := decode(t, rec)
	video := body["videos"].([]any)[0].(map[string]any)
	if video["videoUrl"] != "https://signed.example.com/clips/1.mp4" {
		t.Errorf("locator was not resolved: %v", video["videoUrl"])
	}
}

func TestListServesRawLocatorWhenResolutionFails(t *testing.T) {
	store, _ := catalog.New([]catalog.Video{{ID: 1, VideoURL: "s3://clips/1.mp4"}})
	h := engagement.NewHandler(store, &staticResolver{err: errors.New("presign failed")})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("list must succeed despite resolver failure, got %d", rec.Code)
	}
	body := decode(t, rec)
	video := body["videos"].([]any)[0].(map[string]any)
	if video["videoUrl"] != "s3://clips/1.mp4" {
		t.Errorf("expected raw locator fallback, got %v", video["videoUrl"])
	}
}

// --- Like ---

func TestLikeIncrementsAndReturnsNewCount(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Like, `{"videoId":7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["likes"] != float64(4) {
		t.Errorf("expected likes 4, got %v", body["likes"])
	}
	if body["videoId"] != float64(7) {
		t.Errorf("expected videoId 7, got %v", body["videoId"])
	}

	rec = post(h.Like, `{"videoId":7}`)
	body = decode(t, rec)
	if body["likes"] != float64(5) {
		t.Errorf("expected likes 5 on repeat, got %v", body["likes"])
	}
}

func TestLikeAcceptsNumericString(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Like, `{"videoId":"7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for numeric string id, got %d", rec.Code)
	}
}

func TestLikeMissingIDIsBadRequest(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{`{}`, `{"videoId":null}`, `{"videoId":""}`, `{"videoId":0}`} {
		rec := post(h.Like, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
		resp := decode(t, rec)
		if resp["message"] != "Video ID required" {
			t.Errorf("body %s: unexpected message %v", body, resp["message"])
		}
	}
}

func TestLikeUnknownIDIsNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Like, `{"videoId":999}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != "Video not found" {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestLikeNonCoercibleIDIsNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Like, `{"videoId":"abc"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for non-coercible id, got %d", rec.Code)
	}
}

func TestLikeCoercesLeadingDigitsOfString(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Like, `{"videoId":"7abc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for numeric-prefixed id, got %d", rec.Code)
	}
	if likes := decode(t, rec)["likes"]; likes != float64(4) {
		t.Errorf("expected likes 4 on video 7, got %v", likes)
	}
}

func TestLikeInvalidBodyIsBadRequest(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Like, `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Share ---

func TestShareIncrementsAndNamesPlatform(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Share, `{"videoId":7,"platform":"twitter"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["shares"] != float64(1) {
		t.Errorf("expected shares 1, got %v", body["shares"])
	}
	if !strings.Contains(body["message"].(string), "twitter") {
		t.Errorf("message should reference the platform: %v", body["message"])
	}
}

func TestShareWithoutPlatformUsesUnknownMarker(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Share, `{"videoId":7}`)
	body := decode(t, rec)
	if !strings.Contains(body["message"].(string), engagement.UnknownPlatform) {
		t.Errorf("message should reference %q: %v", engagement.UnknownPlatform, body["message"])
	}
}

func TestShareMissingIDIsBadRequest(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Share, `{"platform":"facebook"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestShareUnknownIDIsNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Share, `{"videoId":999}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// --- Comment ---

func TestCommentAppendsWithSequentialID(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Comment, `{"videoId":7,"comment":"nice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	body := decode(t, rec)
	comment := body["comment"].(map[string]any)
	if comment["id"] != float64(3) {
		t.Errorf("expected comment id 3 after 2 existing comments, got %v", comment["id"])
	}
	if comment["text"] != "nice" {
		t.Errorf("unexpected text %v", comment["text"])
	}
	if body["totalComments"] != float64(3) {
		t.Errorf("expected totalComments 3, got %v", body["totalComments"])
	}
}

func TestCommentMissingFieldsIsBadRequest(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{`{"comment":"hi"}`, `{"videoId":7}`, `{"videoId":7,"comment":""}`} {
		rec := post(h.Comment, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
		if msg := decode(t, rec)["message"]; msg != "Video ID and comment required" {
			t.Errorf("body %s: unexpected message %v", body, msg)
		}
	}
}

func TestCommentValidationRunsBeforeStoreLookup(t *testing.T) {
	h := newTestHandler(t)

	// Unknown id plus empty comment: the parameter check wins.
	rec := post(h.Comment, `{"videoId":999,"comment":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 before store lookup, got %d", rec.Code)
	}
}

func TestCommentUnknownIDIsNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Comment, `{"videoId":999,"comment":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCommentTimestampIsISO8601(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h.Comment, `{"videoId":7,"comment":"stamped"}`)
	body := decode(t, rec)
	ts := body["comment"].(map[string]any)["timestamp"].(string)
	if !strings.HasSuffix(ts, "Z") || !strings.Contains(ts, "T") {
		t.Errorf("timestamp %q is not ISO-8601 UTC", ts)
	}
}
