package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"travel-server/auth"
	"travel-server/logger"
	"travel-server/middleware"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Threads        ThreadService
	Events         EventService
	Users          UserService
	Auth           AuthService
	Tokens         *auth.TokenManager
	AllowedOrigins []string
	// AuthLimiter throttles /auth; nil disables rate limiting.
	AuthLimiter *middleware.LimiterStore
	// TrustProxy keys the limiter on X-Forwarded-For instead of the peer address.
	TrustProxy bool
	// Health reports dependency health for /healthz; nil always reports ok.
	Health func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) *mux.Router {
	threads := NewThreadHandler(cfg.Threads)
	events := NewEventHandler(cfg.Events)
	users := NewUserHandler(cfg.Users, cfg.Events)
	authHandler := NewAuthHandler(cfg.Auth)
	requireAuth := middleware.JWTMiddleware(cfg.Tokens)
	authed := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", healthz(cfg.Health)).Methods("GET")

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	if cfg.AuthLimiter != nil {
		authRouter.Use(middleware.RateLimit(cfg.AuthLimiter, cfg.TrustProxy))
	}
	authRouter.HandleFunc("/register", authHandler.RegisterUser).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.LoginUser).Methods("POST", "OPTIONS")

	// Thread routes, all session scoped
	threadRouter := r.PathPrefix("/threads").Subrouter()
	threadRouter.Use(middleware.ValidateObjectIDs("id"))
	threadRouter.Use(requireAuth)
	threadRouter.HandleFunc("", threads.CreateThread).Methods("POST", "OPTIONS")
	threadRouter.HandleFunc("", threads.ListThreads).Methods("GET", "OPTIONS")
	threadRouter.HandleFunc("/{id}", threads.PostMessage).Methods("PUT", "OPTIONS")
	threadRouter.HandleFunc("/{id}", threads.Leave).Methods("PATCH", "OPTIONS")
	threadRouter.HandleFunc("/{id}/read", threads.MarkRead).Methods("PATCH", "OPTIONS")

	// Event routes
	eventRouter := r.PathPrefix("/events").Subrouter()
	eventRouter.Use(middleware.ValidateObjectIDs("id"))
	eventRouter.HandleFunc("", events.ListEvents).Methods("GET", "OPTIONS")
	eventRouter.Handle("", authed(events.CreateEvent)).Methods("POST", "OPTIONS")
	eventRouter.HandleFunc("/nearby", events.Nearby).Methods("GET", "OPTIONS")
	eventRouter.HandleFunc("/{id}", events.GetEvent).Methods("GET", "OPTIONS")
	eventRouter.Handle("/{id}", authed(events.UpdateEvent)).Methods("PATCH", "OPTIONS")
	eventRouter.HandleFunc("/{id}/register", events.Register).Methods("PATCH", "OPTIONS")
	eventRouter.HandleFunc("/{id}/unregister", events.Unregister).Methods("PATCH", "OPTIONS")
	eventRouter.HandleFunc("/{id}/participants", events.Participants).Methods("GET", "OPTIONS")

	// User routes
	userRouter := r.PathPrefix("/users").Subrouter()
	userRouter.Use(middleware.ValidateObjectIDs("id"))
	userRouter.HandleFunc("/search", users.Search).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{id}", users.GetUser).Methods("GET", "OPTIONS")
	userRouter.Handle("/{id}", authed(users.UpdateProfile)).Methods("PATCH", "OPTIONS")
	userRouter.Handle("/{id}/location", authed(users.UpdateLocation)).Methods("PATCH", "OPTIONS")
	userRouter.HandleFunc("/{id}/events", users.Events).Methods("GET", "OPTIONS")

	return r
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Log.Warn("health check failed", zap.Error(err))
				middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
