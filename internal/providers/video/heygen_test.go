package video

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"strang/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HeyGenClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHeyGenClient(Options{APIKey: "hg-test", BaseURL: srv.URL})
}

func TestSubmitSendsScript(t *testing.T) {
	var got generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/video_agent/generate" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if key := r.Header.Get("X-Api-Key"); key != "hg-test" {
			t.Errorf("X-Api-Key = %q, want hg-test", key)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"data": {"video_id": "vid-123"}}`)
	})

	sp := vsdScreenplay()
	id, err := client.Submit(context.Background(), sp)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "vid-123" {
		t.Fatalf("video id = %q, want vid-123", id)
	}
	if got.Prompt != BuildPrompt(sp) {
		t.Fatalf("prompt = %q, want BuildPrompt output", got.Prompt)
	}
	if got.Config.Orientation != "landscape" || got.Config.DurationSec != 90 {
		t.Fatalf("config = %+v, want landscape/90", got.Config)
	}
}

func TestSubmitVideoIDPaths(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "data.video_id", body: `{"data": {"video_id": "a"}}`, want: "a"},
		{name: "root video_id", body: `{"video_id": "b"}`, want: "b"},
		{name: "data.id", body: `{"data": {"id": "c"}}`, want: "c"},
		{name: "prefers data.video_id", body: `{"video_id": "root", "data": {"video_id": "inner", "id": "other"}}`, want: "inner"},
		{name: "numeric id", body: `{"data": {"id": 42}}`, want: "42"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})
			id, err := client.Submit(context.Background(), vsdScreenplay())
			if err != nil {
				t.Fatalf("Submit error: %v", err)
			}
			if id != tc.want {
				t.Fatalf("video id = %q, want %q", id, tc.want)
			}
		})
	}
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "error message", status: http.StatusBadRequest, body: `{"error": {"message": "insufficient credits"}}`, wantDetail: "HeyGen Video Agent error: insufficient credits"},
		{name: "plain body", status: http.StatusInternalServerError, body: "gateway exploded", wantDetail: "HeyGen Video Agent error: gateway exploded"},
		{name: "missing id", status: http.StatusOK, body: `{"data": {}}`, wantDetail: "HeyGen did not return video_id"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantDetail: "HeyGen did not return video_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.Submit(context.Background(), vsdScreenplay())
			if !errors.Is(err, domain.ErrUpstream) {
				t.Fatalf("Submit = %v, want ErrUpstream", err)
			}
			if err.Error() != tc.wantDetail {
				t.Fatalf("error = %q, want %q", err.Error(), tc.wantDetail)
			}
		})
	}
}

func TestSubmitMissingKey(t *testing.T) {
	client := NewHeyGenClient(Options{})
	_, err := client.Submit(context.Background(), vsdScreenplay())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("Submit = %v, want ErrConfiguration", err)
	}
	if err.Error() != "HEYGEN_API_KEY is not set." {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestSubmitTransportError(t *testing.T) {
	client := NewHeyGenClient(Options{
		APIKey: "hg-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})},
	})
	_, err := client.Submit(context.Background(), vsdScreenplay())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("Submit = %v, want ErrUpstream", err)
	}
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantStatus    PollStatus
		wantURL       string
		wantError     string
		wantTransient bool
	}{
		{name: "processing", status: 200, body: `{"data": {"status": "processing"}}`, wantStatus: PollPending},
		{name: "completed in data", status: 200, body: `{"data": {"status": "completed", "video_url": "https://cdn/v.mp4"}}`, wantStatus: PollCompleted, wantURL: "https://cdn/v.mp4"},
		{name: "completed url alias", status: 200, body: `{"data": {"status": "Completed", "result_url": "https://cdn/r.mp4"}}`, wantStatus: PollCompleted, wantURL: "https://cdn/r.mp4"},
		{name: "root shape", status: 200, body: `{"status": "completed", "url": "https://cdn/u.mp4"}`, wantStatus: PollCompleted, wantURL: "https://cdn/u.mp4"},
		{name: "failed", status: 200, body: `{"data": {"status": "failed", "error": {"message": "moderation"}}}`, wantStatus: PollFailed, wantError: "moderation"},
		{name: "error status", status: 200, body: `{"data": {"status": "error"}}`, wantStatus: PollFailed},
		{name: "unknown status", status: 200, body: `{"data": {"status": "waiting"}}`, wantStatus: PollPending},
		{name: "non 2xx", status: 404, body: `{"message": "video not found"}`, wantStatus: PollError, wantError: `{"message": "video not found"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/video_status.get" || r.URL.Query().Get("video_id") != "vid-123" {
					t.Errorf("request = %s", r.URL.String())
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			res := client.Poll(context.Background(), "vid-123")
			if res.Status != tc.wantStatus {
				t.Fatalf("Status = %q, want %q", res.Status, tc.wantStatus)
			}
			if res.VideoURL != tc.wantURL {
				t.Fatalf("VideoURL = %q, want %q", res.VideoURL, tc.wantURL)
			}
			if res.Error != tc.wantError {
				t.Fatalf("Error = %q, want %q", res.Error, tc.wantError)
			}
			if res.Transient != tc.wantTransient {
				t.Fatalf("Transient = %v, want %v", res.Transient, tc.wantTransient)
			}
		})
	}
}

func TestPollTransportErrorIsTransient(t *testing.T) {
	client := NewHeyGenClient(Options{
		APIKey: "hg-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("timeout")
		})},
	})
	res := client.Poll(context.Background(), "vid-123")
	if res.Status != PollError || !res.Transient {
		t.Fatalf("Poll = %+v, want transient error", res)
	}
	if !strings.Contains(res.Error, "timeout") {
		t.Fatalf("Error = %q, want transport message", res.Error)
	}
}
