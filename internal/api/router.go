package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/assistantkit/backend/internal/api/handlers"
	"github.com/assistantkit/backend/internal/api/middleware"
	"github.com/assistantkit/backend/internal/chat"
	"github.com/assistantkit/backend/internal/config"
	"github.com/assistantkit/backend/internal/ingest"
	"github.com/assistantkit/backend/internal/training"
)

// Deps carries the constructed services the router exposes. Services
// are built once at startup and shared across requests.
type Deps struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Config   *config.Config
	Ingest   *ingest.Orchestrator
	Chat     *chat.Coordinator
	Training *training.Manager
}

type Router struct {
	mux  *chi.Mux
	deps Deps
}

func NewRouter(deps Deps) *Router {
	return &Router{mux: chi.NewRouter(), deps: deps}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.DB, rt.deps.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	apikey := middleware.NewAPIKey(rt.deps.Config.Auth.APIKeyHeader, rt.deps.Config.Auth.APIKey)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apikey.Authenticate)

		docH := handlers.NewDocumentHandler(rt.deps.Ingest)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", docH.Upload)
			r.Get("/", docH.List)
			r.Get("/{id}", docH.Get)
			r.Get("/{id}/status", docH.Status)
			r.Delete("/{id}", docH.Delete)
			r.Post("/folders", docH.CreateFolder)
			r.Delete("/folders/{id}", docH.DeleteFolder)
		})

		chatH := handlers.NewChatHandler(rt.deps.Chat)
		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", chatH.SendMessage)
			r.Post("/contexts", chatH.CreateContext)
			r.Get("/contexts", chatH.ListContexts)
			r.Get("/contexts/{id}/messages", chatH.ListMessages)
		})

		trainH := handlers.NewTrainingHandler(rt.deps.Training)
		r.Route("/training", func(r chi.Router) {
			r.Post("/start", trainH.Start)
			r.Get("/sessions", trainH.List)
			r.Get("/sessions/{id}", trainH.Get)
			r.Post("/sessions/{id}/stop", trainH.Stop)
		})
	})

	return r
}
