package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"offnote/internal/handlers"
	"offnote/internal/metrics"
)

// Service is everything the backend selector serves over HTTP.
type Service interface {
	handlers.NoteService
	handlers.FolderService
	handlers.HistoryService
	handlers.SettingsService
	handlers.BackendService
}

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Service  Service
	Searcher handlers.Searcher
	Drafts   handlers.Drafts
	DB       handlers.Pinger
	Metrics  *metrics.Collector
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics(deps.Metrics))

	// Add CORS middleware
	r.Use(CORS)

	notes := handlers.NewNoteHandler(deps.Service)
	folders := handlers.NewFolderHandler(deps.Service)
	history := handlers.NewHistoryHandler(deps.Service)
	settings := handlers.NewSettingsHandler(deps.Service)
	backend := handlers.NewBackendHandler(deps.Service)
	searches := handlers.NewSearchHandler(deps.Service, deps.Searcher)
	drafts := handlers.NewDraftHandler(deps.Drafts)
	render := handlers.NewRenderHandler(deps.Service)
	health := handlers.NewHealthHandler(deps.DB, deps.Service)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", health)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", notes.List)
			r.Post("/", notes.Create)
			r.Get("/trash", notes.Trash)
			r.Delete("/trash", notes.EmptyTrash)
			r.Get("/favorites", notes.Favorites)
			r.Post("/import", notes.Import)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", notes.Get)
				r.Put("/", notes.Update)
				r.Delete("/", notes.Delete)
				r.Post("/restore", notes.Restore)
				r.Delete("/permanent", notes.Purge)
				r.Post("/move", notes.Move)
				r.Post("/favorite", notes.ToggleFavorite)
				r.Post("/tags", notes.AddTag)
				r.Delete("/tags/{tag}", notes.RemoveTag)
				r.Get("/export", notes.Export)
				r.Method(http.MethodGet, "/render", render)

				r.Post("/find", searches.Find)
				r.Post("/replace", searches.Replace)

				r.Get("/history", history.List)
				r.Post("/history", history.Record)
				r.Delete("/history", history.Clear)

				r.Get("/draft", drafts.State)
				r.Put("/draft", drafts.Edit)
				r.Post("/draft/flush", drafts.Flush)
				r.Delete("/draft", drafts.Close)
			})
		})

		r.Get("/tags", notes.Tags)
		r.Get("/tags/{tag}/notes", notes.ByTag)

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", folders.List)
			r.Post("/", folders.Create)
			r.Get("/{id}", folders.Get)
			r.Put("/{id}", folders.Update)
			r.Delete("/{id}", folders.Delete)
			r.Get("/{id}/notes", folders.Notes)
		})

		r.Delete("/history/{entryID}", history.DeleteEntry)
		r.Post("/history/cleanup", history.Cleanup)

		r.Get("/settings", settings.All)
		r.Get("/settings/{key}", settings.Get)
		r.Put("/settings/{key}", settings.Put)

		r.Route("/backend", func(r chi.Router) {
			r.Get("/", backend.Status)
			r.Post("/enable", backend.Enable)
			r.Post("/disable", backend.Disable)
			r.Post("/sync", backend.Sync)
			r.Post("/reconnect", backend.Reconnect)
		})

		r.Get("/search", searches.Plain)
		r.Post("/search", searches.Pattern)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
