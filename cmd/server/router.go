package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edforge/edforge-api/internal/api"
	apiMiddleware "github.com/edforge/edforge-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	questionHandler := api.NewQuestionHandler(app.generationService, app.logger)
	generationHandler := api.NewGenerationHandler(app.generationService, app.logger)
	visualizationHandler := api.NewVisualizationHandler(app.generationService, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Question endpoints
		r.Post("/questions", questionHandler.CreateQuestion)
		r.Get("/questions/{id}", questionHandler.GetQuestion)
		r.Get("/questions/{id}/visualizations", visualizationHandler.ListQuestionVisualizations)
		r.Post("/upload", questionHandler.UploadQuestion)

		// Pipeline endpoints
		r.Post("/generate", generationHandler.StartGeneration)
		r.Get("/progress/{processId}", generationHandler.GetProgress)
		r.Post("/steps/{stepId}/retry", generationHandler.RetryStep)

		// Visualization endpoints
		r.Get("/visualizations/{id}", visualizationHandler.GetVisualization)
		r.Get("/visualizations/{id}/html", visualizationHandler.GetVisualizationHTML)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
