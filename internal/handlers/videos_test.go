package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func multipartVideo(t *testing.T, title string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("title", title); err != nil {
		t.Fatalf("write title: %v", err)
	}
	if withFile {
		part, err := writer.CreateFormFile("videoFile", "clip.mp4")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := io.Copy(part, strings.NewReader("not really an mp4")); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestVideosPublish(t *testing.T) {
	env := newTestEnv()

	body, contentType := multipartVideo(t, "My first video", true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	var video models.Video
	if err := json.NewDecoder(rec.Body).Decode(&video); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if video.OwnerID != "acct-1" || video.Title != "My first video" {
		t.Fatalf("unexpected video: %+v", video)
	}
	if !strings.HasPrefix(video.VideoURL, "https://media.test/") {
		t.Fatalf("expected uploaded video URL, got %q", video.VideoURL)
	}
	if _, ok := env.videos.videos[video.ID]; !ok {
		t.Fatal("expected video to be stored")
	}
}

func TestVideosPublishValidation(t *testing.T) {
	env := newTestEnv()

	// Missing file.
	body, contentType := multipartVideo(t, "No file", false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := env.do(req, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	// Missing title.
	body, contentType = multipartVideo(t, "", true)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec = env.do(req, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestVideosPublishThumbnailBufferError(t *testing.T) {
	env := newTestEnv()

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("title", "Launch day"); err != nil {
		t.Fatalf("write title: %v", err)
	}
	part, err := writer.CreateFormFile("videoFile", "clip.mp4")
	if err != nil {
		t.Fatalf("create video part: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader("tiny")); err != nil {
		t.Fatalf("write video part: %v", err)
	}
	thumb, err := writer.CreateFormFile("thumbnail", "thumb.png")
	if err != nil {
		t.Fatalf("create thumbnail part: %v", err)
	}
	if _, err := io.Copy(thumb, bytes.NewReader(bytes.Repeat([]byte("p"), 64<<10))); err != nil {
		t.Fatalf("write thumbnail part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	// Parse with a threshold that keeps the video part in memory but
	// spills the thumbnail to disk, then remove the spilled file so only
	// the thumbnail fails to buffer.
	if err := req.ParseMultipartForm(1 << 10); err != nil {
		t.Fatalf("parse multipart form: %v", err)
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected the thumbnail part to spill to disk")
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(tmp, entry.Name())); err != nil {
			t.Fatalf("remove spilled upload: %v", err)
		}
	}

	rec := env.do(req, true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d: %s", http.StatusInternalServerError, rec.Code, rec.Body)
	}
	if len(env.videos.videos) != 0 {
		t.Fatal("expected no video to be published after a thumbnail buffering failure")
	}
}

func TestVideosGet(t *testing.T) {
	env := newTestEnv()
	env.videos.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "acct-2", Title: "Clip", Views: 4}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/videos/video-1", nil), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	var view struct {
		ID        string `json:"id"`
		Views     int64  `json:"views"`
		LikeCount int64  `json:"likeCount"`
		IsLiked   bool   `json:"isLiked"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Views != 5 {
		t.Fatalf("expected view count to increment to 5, got %d", view.Views)
	}
	if view.LikeCount != 3 || view.IsLiked {
		t.Fatalf("unexpected engagement state: %+v", view)
	}

	// Authenticated read derives the viewer's like flag.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/videos/video-1", nil), true)
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !view.IsLiked {
		t.Fatal("expected viewer like flag for authenticated read")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/videos/missing", nil), false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestVideosDelete(t *testing.T) {
	env := newTestEnv()
	env.videos.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "acct-1"}
	env.videos.videos["video-2"] = models.Video{ID: "video-2", OwnerID: "acct-2"}

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/video-2", nil), true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d deleting another owner's video, got %d", http.StatusForbidden, rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/video-1", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}
	if _, ok := env.videos.videos["video-1"]; ok {
		t.Fatal("expected video to be removed")
	}
}

func TestVideosListByChannel(t *testing.T) {
	env := newTestEnv()
	env.videos.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "acct-2"}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/acct-2/videos", nil), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Videos []models.Video `json:"videos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 {
		t.Fatalf("expected one video, got %+v", resp.Videos)
	}
}
