package handlers

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by the HTTP surface.
type Dependencies struct {
	Sessions   SessionManager
	Engagement EngagementService
	Comments   CommentService
	Videos     VideoStore
	Posts      PostStore
	Media      MediaStore

	CredentialLimiter middleware.RateLimiter
}

// NewRouter wires every endpoint into a chi router. Credential endpoints sit
// behind the per-IP throttle; protected routes require a bearer access token;
// public read routes accept one optionally so viewer flags can be derived.
func NewRouter(deps Dependencies) *chi.Mux {
	authH := AuthHandler{Sessions: deps.Sessions}
	engagementH := EngagementHandler{Engagement: deps.Engagement}
	commentsH := CommentHandler{Comments: deps.Comments}
	videosH := VideoHandler{Videos: deps.Videos, Media: deps.Media, Engagement: deps.Engagement}
	postsH := PostHandler{Posts: deps.Posts}

	requireAuth := middleware.RequireAuth(deps.Sessions)
	optionalAuth := middleware.OptionalAuth(deps.Sessions)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)

	r.Get("/healthz", HealthHandler{}.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.CredentialLimiter != nil {
					r.Use(middleware.ThrottleByIP(deps.CredentialLimiter))
				}
				r.Post("/register", authH.Register)
				r.Post("/login", authH.Login)
				r.Post("/refresh", authH.Refresh)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authH.Logout)
				r.Get("/me", authH.Me)
				r.Patch("/me", authH.UpdateMe)
				r.Post("/change-password", authH.ChangePassword)
			})
		})

		// Public reads, viewer-aware when a token is supplied.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/videos/{videoId}", videosH.Get)
			r.Get("/videos/{videoId}/comments", commentsH.List)
			r.Get("/channels/{username}", engagementH.ChannelProfile)
			r.Get("/channels/{channelId}/videos", videosH.ListByChannel)
			r.Get("/channels/{channelId}/posts", postsH.ListByChannel)
			r.Get("/channels/{channelId}/subscribers", engagementH.Subscribers)
		})

		// Mutations require an authenticated actor.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/videos", videosH.Publish)
			r.Delete("/videos/{videoId}", videosH.Delete)

			r.Post("/videos/{videoId}/like", engagementH.ToggleVideoLike)
			r.Post("/comments/{commentId}/like", engagementH.ToggleCommentLike)
			r.Post("/posts/{postId}/like", engagementH.TogglePostLike)
			r.Post("/channels/{channelId}/subscribe", engagementH.ToggleSubscription)

			r.Get("/likes/{kind}", engagementH.LikedItems)
			r.Get("/subscriptions", engagementH.SubscribedChannels)
			r.Get("/dashboard/stats", engagementH.DashboardStats)

			r.Post("/videos/{videoId}/comments", commentsH.Add)
			r.Post("/comments/{commentId}/replies", commentsH.Reply)
			r.Patch("/comments/{commentId}", commentsH.Update)
			r.Delete("/comments/{commentId}", commentsH.Delete)

			r.Post("/posts", postsH.Create)
			r.Delete("/posts/{postId}", postsH.Delete)
		})
	})

	return r
}
