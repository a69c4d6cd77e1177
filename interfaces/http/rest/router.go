package rest

import (
	"net/http"

	"relate-backend/application/services"
	"relate-backend/interfaces/http/rest/handlers"
	"relate-backend/interfaces/http/rest/middleware"
	"relate-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	editor  *services.EditorService
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewRouter creates a new router instance
func NewRouter(
	editor *services.EditorService,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Router {
	return &Router{
		editor:  editor,
		logger:  logger,
		metrics: metrics,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(rt.editor, rt.logger)
			r.Post("/", sessionHandler.CreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/diagram", sessionHandler.GetDiagram)
				r.Post("/resize", sessionHandler.Resize)
				r.Post("/clean", sessionHandler.Clean)

				// Gesture endpoints
				gestureHandler := handlers.NewGestureHandler(rt.editor, rt.logger)
				r.Route("/gestures", func(r chi.Router) {
					r.Post("/pointer-down", gestureHandler.PointerDown)
					r.Post("/pointer-move", gestureHandler.PointerMove)
					r.Post("/pointer-up", gestureHandler.PointerUp)
					r.Post("/click-column", gestureHandler.ClickColumn)
				})

				// Relationship endpoints
				relationshipHandler := handlers.NewRelationshipHandler(rt.editor, rt.logger)
				r.Route("/relationships", func(r chi.Router) {
					r.Post("/", relationshipHandler.CreateRelationship)
					r.Delete("/{relationshipID}", relationshipHandler.DeleteRelationship)
				})

				// Merge endpoints
				mergeHandler := handlers.NewMergeHandler(rt.editor, rt.logger)
				r.Post("/merge", mergeHandler.SubmitMerge)
				r.Get("/merge/{resultID}/export", mergeHandler.ExportMerge)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
