package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/apperr"
)

func TestToggleVideoLike(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/videos/video-1/like", nil), false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous toggle to fail, got %d", rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/videos/video-1/like", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	var resp struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Active {
		t.Fatal("expected first toggle to report active")
	}
	if len(env.engagement.toggled) != 1 || env.engagement.toggled[0] != "acct-1/video/video-1" {
		t.Fatalf("unexpected toggle calls: %v", env.engagement.toggled)
	}
}

func TestToggleLikeRoutesPerKind(t *testing.T) {
	env := newTestEnv()

	for _, path := range []string{
		"/api/v1/videos/video-1/like",
		"/api/v1/comments/comment-1/like",
		"/api/v1/posts/post-1/like",
	} {
		rec := env.do(httptest.NewRequest(http.MethodPost, path, nil), true)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d got %d", path, http.StatusOK, rec.Code)
		}
	}

	want := []string{
		"acct-1/video/video-1",
		"acct-1/comment/comment-1",
		"acct-1/post/post-1",
	}
	if len(env.engagement.toggled) != len(want) {
		t.Fatalf("expected %d toggles, got %v", len(want), env.engagement.toggled)
	}
	for i, call := range want {
		if env.engagement.toggled[i] != call {
			t.Fatalf("expected toggle %q at %d, got %q", call, i, env.engagement.toggled[i])
		}
	}
}

func TestToggleLikeMissingTarget(t *testing.T) {
	env := newTestEnv()
	env.engagement.toggleErr = apperr.NotFoundf("video not found")

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/videos/missing/like", nil), true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestToggleSubscription(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/channels/acct-2/subscribe", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	// Subscribing to yourself is a client error.
	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/channels/acct-1/subscribe", nil), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestChannelProfile(t *testing.T) {
	env := newTestEnv()

	// Anonymous read works and reports not subscribed.
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/bob", nil), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	var profile struct {
		Username        string `json:"username"`
		SubscriberCount int64  `json:"subscriberCount"`
		IsSubscribed    bool   `json:"isSubscribed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if profile.Username != "bob" || profile.SubscriberCount != 7 || profile.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// The same read with a token derives the viewer flag.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/bob", nil), true)
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !profile.IsSubscribed {
		t.Fatal("expected viewer flag for authenticated read")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/ghost", nil), false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSubscribers(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/acct-2/subscribers", nil), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/ghost/subscribers", nil), false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSubscribedChannelsRequiresAuth(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil), false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var stats struct {
		TotalVideos      int64 `json:"totalVideos"`
		TotalSubscribers int64 `json:"totalSubscribers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalVideos != 2 || stats.TotalSubscribers != 7 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLikedVideos(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/likes/videos", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Kind   string `json:"kind"`
		Videos []struct {
			LikeCount int64 `json:"likeCount"`
		} `json:"videos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Kind != "video" || len(resp.Videos) != 1 || resp.Videos[0].LikeCount != 3 {
		t.Fatalf("unexpected liked videos: %+v", resp)
	}
}

func TestLikedItemsPerKind(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		segment string
		kind    string
	}{
		{"videos", "video"},
		{"comments", "comment"},
		{"posts", "post"},
	}
	for _, tc := range cases {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/likes/"+tc.segment, nil), true)
		if rec.Code != http.StatusOK {
			t.Fatalf("likes/%s: expected status %d got %d", tc.segment, http.StatusOK, rec.Code)
		}

		var resp struct {
			Kind     string            `json:"kind"`
			Videos   []json.RawMessage `json:"videos"`
			Comments []json.RawMessage `json:"comments"`
			Posts    []json.RawMessage `json:"posts"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("likes/%s: decode response: %v", tc.segment, err)
		}
		if resp.Kind != tc.kind {
			t.Fatalf("likes/%s: expected kind %q got %q", tc.segment, tc.kind, resp.Kind)
		}
		got := len(resp.Videos) + len(resp.Comments) + len(resp.Posts)
		if got != 1 {
			t.Fatalf("likes/%s: expected exactly one liked item, got %d", tc.segment, got)
		}
	}
}

func TestLikedItemsUnknownKind(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/likes/playlists", nil), true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestLikedItemsRequireAuth(t *testing.T) {
	env := newTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/likes/videos", nil), false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
