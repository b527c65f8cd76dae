package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/models"
)

const testAccessToken = "valid-token"

// stubSessions satisfies SessionManager with canned behavior: the fixed
// access token resolves to acct-1, everything else is rejected.
type stubSessions struct {
	refreshErr error
	loggedOut  []string
}

func (s *stubSessions) Register(_ context.Context, params auth.RegisterParams) (models.PublicAccount, models.TokenPair, error) {
	return models.PublicAccount{ID: "acct-1", Username: params.Username}, testTokenPair(), nil
}

func (s *stubSessions) Login(_ context.Context, params auth.LoginParams) (models.PublicAccount, models.TokenPair, error) {
	if (params.Username == "") == (params.Email == "") {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("exactly one of username or email is required")
	}
	if params.Password != "supersafe" {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Authenticationf("invalid credentials")
	}
	return models.PublicAccount{ID: "acct-1", Username: "alice"}, testTokenPair(), nil
}

func (s *stubSessions) Refresh(_ context.Context, refreshToken string) (models.TokenPair, error) {
	if s.refreshErr != nil {
		return models.TokenPair{}, s.refreshErr
	}
	if refreshToken != "valid-refresh" {
		return models.TokenPair{}, apperr.Authenticationf("refresh token expired or reused")
	}
	return testTokenPair(), nil
}

func (s *stubSessions) Logout(_ context.Context, accountID string) error {
	s.loggedOut = append(s.loggedOut, accountID)
	return nil
}

func (s *stubSessions) VerifyAccess(accessToken string) (string, error) {
	if accessToken != testAccessToken {
		return "", apperr.Authenticationf("malformed access token")
	}
	return "acct-1", nil
}

func (s *stubSessions) CurrentUser(_ context.Context, accountID string) (models.PublicAccount, error) {
	return models.PublicAccount{ID: accountID, Username: "alice"}, nil
}

func (s *stubSessions) ChangePassword(_ context.Context, _, oldPassword, _ string) error {
	if oldPassword != "supersafe" {
		return apperr.Authenticationf("invalid current password")
	}
	return nil
}

func (s *stubSessions) UpdateProfile(_ context.Context, accountID string, params auth.UpdateProfileParams) (models.PublicAccount, error) {
	return models.PublicAccount{ID: accountID, Username: "alice", FullName: params.FullName}, nil
}

func testTokenPair() models.TokenPair {
	exp := time.Now().Add(time.Hour)
	return models.TokenPair{
		AccessToken:      "issued-access",
		AccessExpiresAt:  exp,
		RefreshToken:     "issued-refresh",
		RefreshExpiresAt: exp.Add(24 * time.Hour),
	}
}

// stubEngagement records toggles and serves canned reads.
type stubEngagement struct {
	toggled    []string
	toggleErr  error
	active     bool
	subscribed []string
}

func (s *stubEngagement) ToggleReaction(_ context.Context, actorID string, kind models.TargetKind, targetID string) (engagement.ToggleResult, error) {
	if s.toggleErr != nil {
		return engagement.ToggleResult{}, s.toggleErr
	}
	s.toggled = append(s.toggled, actorID+"/"+string(kind)+"/"+targetID)
	s.active = !s.active
	return engagement.ToggleResult{Active: s.active}, nil
}

func (s *stubEngagement) ToggleSubscription(_ context.Context, subscriberID, channelID string) (engagement.ToggleResult, error) {
	if subscriberID == channelID {
		return engagement.ToggleResult{}, apperr.Validationf("cannot subscribe to self")
	}
	s.subscribed = append(s.subscribed, subscriberID+"/"+channelID)
	return engagement.ToggleResult{Active: true}, nil
}

func (s *stubEngagement) LikeCount(_ context.Context, _ models.TargetKind, _ string) (int64, error) {
	return 3, nil
}

func (s *stubEngagement) IsLiked(_ context.Context, actorID string, _ models.TargetKind, _ string) (bool, error) {
	return actorID != "", nil
}

func (s *stubEngagement) ListLiked(_ context.Context, _ string, kind models.TargetKind) (models.LikedItems, error) {
	items := models.LikedItems{Kind: kind}
	switch kind {
	case models.TargetVideo:
		items.Videos = []models.LikedVideo{{VideoView: models.VideoView{Video: models.Video{ID: "video-1"}, LikeCount: 3}}}
	case models.TargetComment:
		items.Comments = []models.LikedComment{{CommentView: models.CommentView{Comment: models.Comment{ID: "comment-1"}, LikeCount: 1}}}
	case models.TargetPost:
		items.Posts = []models.LikedPost{{PostView: models.PostView{Post: models.Post{ID: "post-1"}, LikeCount: 2}}}
	default:
		return models.LikedItems{}, apperr.NotFoundf("unknown target kind %q", kind)
	}
	return items, nil
}

func (s *stubEngagement) ListSubscribers(_ context.Context, channelID string) ([]models.PublicAccount, error) {
	if channelID == "ghost" {
		return nil, apperr.NotFoundf("channel not found")
	}
	return []models.PublicAccount{{ID: "acct-2", Username: "bob"}}, nil
}

func (s *stubEngagement) ListSubscribedChannels(_ context.Context, _ string) ([]models.PublicAccount, error) {
	return []models.PublicAccount{{ID: "acct-2", Username: "bob"}}, nil
}

func (s *stubEngagement) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	if username == "ghost" {
		return models.ChannelProfile{}, apperr.NotFoundf("channel not found")
	}
	return models.ChannelProfile{
		PublicAccount:   models.PublicAccount{ID: "acct-2", Username: username},
		SubscriberCount: 7,
		IsSubscribed:    viewerID != "",
	}, nil
}

func (s *stubEngagement) ChannelStats(_ context.Context, _ string) (models.ChannelStats, error) {
	return models.ChannelStats{TotalVideos: 2, TotalViews: 40, TotalSubscribers: 7, TotalLikes: 5}, nil
}

// stubComments serves the comment surface.
type stubComments struct {
	addErr error
}

func (s *stubComments) Add(_ context.Context, actorID, videoID, body string) (models.Comment, error) {
	if s.addErr != nil {
		return models.Comment{}, s.addErr
	}
	return models.Comment{ID: "comment-1", VideoID: videoID, AuthorID: actorID, Body: body}, nil
}

func (s *stubComments) Reply(_ context.Context, actorID, parentID, body string) (models.Comment, error) {
	if parentID == "reply-1" {
		return models.Comment{}, apperr.Validationf("cannot reply to a reply")
	}
	return models.Comment{ID: "comment-2", AuthorID: actorID, ParentID: &parentID, Body: body}, nil
}

func (s *stubComments) Update(_ context.Context, actorID, commentID, body string) (models.Comment, error) {
	if actorID != "acct-1" {
		return models.Comment{}, apperr.Authorizationf("not the comment author")
	}
	return models.Comment{ID: commentID, AuthorID: actorID, Body: body}, nil
}

func (s *stubComments) Delete(_ context.Context, actorID, commentID string) error {
	if commentID == "other-comment" {
		return apperr.Authorizationf("not the comment author")
	}
	return nil
}

func (s *stubComments) ListForVideo(_ context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentView, error) {
	if videoID == "missing" {
		return nil, apperr.NotFoundf("video not found")
	}
	return []models.CommentView{{Comment: models.Comment{ID: "comment-1", VideoID: videoID, Body: "first!"}}}, nil
}

type stubVideoStore struct {
	videos map[string]models.Video
}

func (s *stubVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *stubVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, apperr.NotFoundf("video not found")
	}
	return video, nil
}

func (s *stubVideoStore) ListByOwner(_ context.Context, ownerID string, _, _ int) ([]models.Video, error) {
	var out []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			out = append(out, video)
		}
	}
	return out, nil
}

func (s *stubVideoStore) IncrementViews(_ context.Context, id string) error {
	video, ok := s.videos[id]
	if ok {
		video.Views++
		s.videos[id] = video
	}
	return nil
}

func (s *stubVideoStore) Delete(_ context.Context, id string) error {
	delete(s.videos, id)
	return nil
}

type stubPostStore struct {
	posts map[string]models.Post
}

func (s *stubPostStore) Create(_ context.Context, post models.Post) error {
	s.posts[post.ID] = post
	return nil
}

func (s *stubPostStore) FindByID(_ context.Context, id string) (models.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, apperr.NotFoundf("post not found")
	}
	return post, nil
}

func (s *stubPostStore) ListByAuthor(_ context.Context, authorID string, _, _ int) ([]models.Post, error) {
	var out []models.Post
	for _, post := range s.posts {
		if post.AuthorID == authorID {
			out = append(out, post)
		}
	}
	return out, nil
}

func (s *stubPostStore) Delete(_ context.Context, id string) error {
	delete(s.posts, id)
	return nil
}

type stubMediaStore struct{}

func (stubMediaStore) Upload(_ context.Context, localPath string) (models.MediaAsset, error) {
	return models.MediaAsset{URL: "https://media.test/" + localPath}, nil
}

type testEnv struct {
	router     http.Handler
	sessions   *stubSessions
	engagement *stubEngagement
	comments   *stubComments
	videos     *stubVideoStore
	posts      *stubPostStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions:   &stubSessions{},
		engagement: &stubEngagement{},
		comments:   &stubComments{},
		videos:     &stubVideoStore{videos: make(map[string]models.Video)},
		posts:      &stubPostStore{posts: make(map[string]models.Post)},
	}
	env.router = NewRouter(Dependencies{
		Sessions:   env.sessions,
		Engagement: env.engagement,
		Comments:   env.comments,
		Videos:     env.videos,
		Posts:      env.posts,
		Media:      stubMediaStore{},
	})
	return env
}

func (e *testEnv) do(req *http.Request, authed bool) *httptest.ResponseRecorder {
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAccessToken)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
