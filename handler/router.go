package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"social-service/middleware"
	"social-service/monitoring"
	"social-service/pkg/respond"
)

// HealthCheck reports whether one backing service answers.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Posts         *PostHandler
	Notifications *NotificationHandler
	Stream        *StreamHandler
	Gate          *middleware.Auth
	HealthChecks  map[string]HealthCheck
	MaxBodyBytes  int64
}

// NewRouter registers every route and wraps the mux in the recoverer, the
// body limit and request metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	gate := cfg.Gate.RequireFunc

	mux.HandleFunc("POST /api/auth/signup", cfg.Auth.Signup)
	mux.HandleFunc("POST /api/auth/login", cfg.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", cfg.Auth.Logout)
	mux.Handle("GET /api/auth/auth-check", gate(cfg.Auth.AuthCheck))

	mux.Handle("GET /api/users/profile/{username}", gate(cfg.Users.GetProfile))
	mux.Handle("GET /api/users/suggested", gate(cfg.Users.Suggested))
	mux.Handle("POST /api/users/{id}/follow", gate(cfg.Users.FollowUnfollow))
	mux.Handle("PATCH /api/users/update", gate(cfg.Users.UpdateProfile))
	mux.Handle("POST /api/users/update", gate(cfg.Users.UpdateProfile))

	mux.Handle("GET /api/posts", gate(cfg.Posts.ListAll))
	mux.Handle("GET /api/posts/following", gate(cfg.Posts.ListFollowing))
	mux.Handle("GET /api/posts/user/{username}", gate(cfg.Posts.ListByUsername))
	mux.Handle("GET /api/posts/likes/{id}", gate(cfg.Posts.ListLiked))
	mux.Handle("POST /api/posts", gate(cfg.Posts.Create))
	mux.Handle("DELETE /api/posts/{id}", gate(cfg.Posts.Delete))
	mux.Handle("POST /api/posts/{id}/comment", gate(cfg.Posts.Comment))
	mux.Handle("POST /api/posts/{id}/like", gate(cfg.Posts.LikeUnlike))

	mux.Handle("GET /api/notifications", gate(cfg.Notifications.List))
	mux.Handle("GET /api/notifications/unread-count", gate(cfg.Notifications.UnreadCount))
	mux.Handle("GET /api/notifications/stream", gate(cfg.Stream.Stream))
	mux.Handle("DELETE /api/notifications", gate(cfg.Notifications.DeleteAll))
	mux.Handle("DELETE /api/notifications/{id}", gate(cfg.Notifications.Delete))

	mux.HandleFunc("GET /health", healthHandler(cfg.HealthChecks))
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = middleware.Recoverer(mux)
	if cfg.MaxBodyBytes > 0 {
		handler = middleware.LimitBody(cfg.MaxBodyBytes)(handler)
	}
	return monitoring.NewPrometheusMiddleware(handler)
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warnf("Health check %s failed: %v", name, err)
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}

		respond.JSON(w, status, respond.Envelope{
			"success":  status == http.StatusOK,
			"services": results,
		})
	}
}
