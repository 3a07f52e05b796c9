// Package api provides the HTTP API server and handlers for the Pantry application.
package api

import (
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pantryapp/pantry-server/internal/config"
	"github.com/pantryapp/pantry-server/internal/media/images"
	"github.com/pantryapp/pantry-server/internal/service"
	"github.com/pantryapp/pantry-server/internal/store"
)

// Services bundles the application services the handlers depend on.
type Services struct {
	Auth       *service.AuthService
	Session    *service.SessionService
	User       *service.UserService
	Recipe     *service.RecipeService
	Tag        *service.TagService
	Ingredient *service.IngredientService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	storage         *images.Storage
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
	maxUploadBytes  int64
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st store.Store, services *Services, storage *images.Storage, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	authRateLimiter := NewRateLimiter(cfg.RateLimit.AuthRequestsPerMinute, time.Minute, cfg.RateLimit.AuthBurst)

	// Middleware must be attached before any route is registered.
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(authRateLimitMiddleware(authRateLimiter, logger))

	humaConfig := huma.DefaultConfig("Pantry API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		storage:         storage,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: authRateLimiter,
		maxUploadBytes:  cfg.Images.MaxUploadBytes,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()

	// Stored images are served straight off disk, outside the huma layer.
	router.Get("/images/recipes/{file}", s.handleServeRecipeImage)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// handleServeRecipeImage serves a stored recipe image by its opaque key.
// Keys are random and carry no user data, so the files themselves are
// not access controlled; guessing a UUID is the only way in.
func (s *Server) handleServeRecipeImage(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")

	// The key is always a generated UUID plus a known extension. Anything
	// that could escape the storage directory is rejected outright.
	if file == "" || strings.ContainsAny(file, "/\\") || strings.Contains(file, "..") {
		http.NotFound(w, r)
		return
	}

	ext := filepath.Ext(file)
	key := strings.TrimSuffix(file, ext)
	if key == "" || ext == "" || !s.storage.Exists(key, ext) {
		http.NotFound(w, r)
		return
	}

	if ctype := mime.TypeByExtension(ext); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, s.storage.Path(key, ext))
}
