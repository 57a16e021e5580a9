package routes

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/app"
	"github.com/atelierhq/atelier/internal/handler"
	"github.com/atelierhq/atelier/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	folder := handler.NewFolderHandler(app.MediaService)
	media := handler.NewMediaHandler(app.MediaService, app.Cfg.UploadMaxSize)
	generate := handler.NewGenerateHandler(app.GenerationService)

	requireAuth := middleware.Auth(app.Cfg.JWTSecret)
	rateLimiter := middleware.RateLimitGenerate()

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)

	// ============================================================================
	// API ROUTES (bearer token required)
	// ============================================================================

	// Folders
	mux.HandleFunc("GET /api/folders", requireAuth(folder.List))
	mux.HandleFunc("POST /api/folders", requireAuth(folder.Create))
	mux.HandleFunc("PATCH /api/folders/{name}", requireAuth(folder.Rename))
	mux.HandleFunc("DELETE /api/folders/{name}", requireAuth(folder.Delete))

	// Media library
	mux.HandleFunc("GET /api/media", requireAuth(media.List))
	mux.HandleFunc("POST /api/media", requireAuth(media.Upload))
	mux.HandleFunc("DELETE /api/media/{id}", requireAuth(media.Delete))

	// Generation review loop (rate limited: the provider call is the
	// expensive part of the system)
	mux.HandleFunc("POST /api/generate", rateLimiter(requireAuth(generate.Generate)))
	mux.HandleFunc("POST /api/media/{id}/finalize", requireAuth(generate.Finalize))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
	)
}
