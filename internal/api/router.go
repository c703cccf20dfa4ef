package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isdelr/jobboard-be/internal/api/handlers"
	"github.com/isdelr/jobboard-be/internal/metrics"
	"github.com/isdelr/jobboard-be/internal/services"
	ws "github.com/isdelr/jobboard-be/internal/websocket"
)

// Dependencies bundles what the router needs to build its handlers.
type Dependencies struct {
	Users          services.UserServiceProvider
	Jobs           services.JobServiceProvider
	Events         services.EventServiceProvider
	DB             handlers.Pinger
	Auth           func(http.Handler) http.Handler
	AllowedOrigins []string
	// Hub enables the /ws push channel when set. The caller runs it.
	Hub *ws.Hub
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	metrics.Init()

	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	userHandler := handlers.NewUserHandler(deps.Users)
	var notifier handlers.AppliedNotifier
	if deps.Hub != nil {
		notifier = deps.Hub
	}
	jobHandler := handlers.NewJobHandler(deps.Jobs, notifier)
	eventHandler := handlers.NewEventHandler(deps.Events)

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	if deps.DB != nil {
		r.Get("/healthz", handlers.NewHealthHandler(deps.DB).Check)
	}

	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	// Everything else requires a bearer token
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth)

		r.Get("/job-listings", jobHandler.GetAll)
		r.Get("/job-listings/{key}", jobHandler.Get)
		r.Post("/mark-applied", jobHandler.MarkApplied)
		r.Get("/is-applied/{key}", jobHandler.IsApplied)
		r.Get("/events", eventHandler.GetRecent)
		if deps.Hub != nil {
			r.Get("/ws", handlers.NewWebSocketHandler(deps.Hub, deps.AllowedOrigins).Serve)
		}
	})

	return r
}
