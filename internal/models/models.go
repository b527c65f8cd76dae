package models

import "time"

// Account represents a registered channel owner on the platform.
// PasswordHash and RefreshFingerprint never leave the process; use Public()
// before returning an account to a caller.
type Account struct {
	ID                 string
	Username           string
	Email              string
	FullName           string
	AvatarURL          string
	CoverURL           string
	PasswordHash       string
	RefreshFingerprint string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicAccount is the caller-visible projection of an Account.
type PublicAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips credentials and session state from the account.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FullName:  a.FullName,
		AvatarURL: a.AvatarURL,
		CoverURL:  a.CoverURL,
		CreatedAt: a.CreatedAt,
	}
}

// TokenPair groups the bearer credentials issued to authenticated accounts.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// TargetKind enumerates the entities a reaction edge may point at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetPost    TargetKind = "post"
)

// Valid reports whether k is one of the supported reaction targets.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetVideo, TargetComment, TargetPost:
		return true
	}
	return false
}

// Reaction records that an actor positively reacted to a target. At most one
// reaction exists per (actor, kind, target), enforced by a unique index.
type Reaction struct {
	ID         string
	ActorID    string
	TargetKind TargetKind
	TargetID   string
	CreatedAt  time.Time
}

// Subscription records that a subscriber follows a channel. At most one
// subscription exists per (subscriber, channel), enforced by a unique index.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Video is an uploaded video owned by a channel.
type Video struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"videoUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	DurationSeconds float64   `json:"durationSeconds"`
	Views           int64     `json:"views"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Post is a short text update published by a channel.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment belongs to a video. ParentID is nil for top-level comments and
// references a top-level comment for replies; nesting never goes deeper.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthorSummary is the slim author projection attached to listed comments.
type AuthorSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// CommentView is a comment enriched with derived engagement state for the
// requesting viewer.
type CommentView struct {
	Comment
	Author    AuthorSummary `json:"author"`
	LikeCount int64         `json:"likeCount"`
	IsLiked   bool          `json:"isLiked"`
}

// VideoView is a video enriched with derived engagement state for the
// requesting viewer.
type VideoView struct {
	Video
	LikeCount int64 `json:"likeCount"`
	IsLiked   bool  `json:"isLiked"`
}

// PostView is a post enriched with derived engagement state for the
// requesting viewer.
type PostView struct {
	Post
	LikeCount int64 `json:"likeCount"`
	IsLiked   bool  `json:"isLiked"`
}

// LikedVideo is a video entry of an actor's liked listing, newest reaction first.
type LikedVideo struct {
	VideoView
	LikedAt time.Time `json:"likedAt"`
}

// LikedComment is a comment entry of an actor's liked listing.
type LikedComment struct {
	CommentView
	LikedAt time.Time `json:"likedAt"`
}

// LikedPost is a post entry of an actor's liked listing.
type LikedPost struct {
	PostView
	LikedAt time.Time `json:"likedAt"`
}

// LikedItems is an actor's liked listing for a single target kind, ordered
// newest reaction first. Only the slice matching Kind is populated.
type LikedItems struct {
	Kind     TargetKind     `json:"kind"`
	Videos   []LikedVideo   `json:"videos,omitempty"`
	Comments []LikedComment `json:"comments,omitempty"`
	Posts    []LikedPost    `json:"posts,omitempty"`
}

// ChannelProfile is the public channel page projection with derived counts.
type ChannelProfile struct {
	PublicAccount
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

// ChannelStats aggregates a channel's dashboard numbers. All values are
// computed from live rows, never from stored counters.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// MediaAsset is what the media store returns for an uploaded file.
type MediaAsset struct {
	URL             string
	DurationSeconds float64
}
