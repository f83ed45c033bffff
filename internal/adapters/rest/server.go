package rest

import (
	"context"
	core_port "listing-service/internal/core/port"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewRouter собирает маршруты /api/v1. Статические пути /properties/all и
// /properties/featured имеют приоритет над /properties/{slug}.
func NewRouter(queryHandlers *PropertyQueryHandlers,
	mutationHandlers *PropertyMutationHandlers,
	baseLogger core_port.LoggerPort) http.Handler {

	r := chi.NewRouter()
	r.Use(LoggerMiddleware(baseLogger), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/properties", queryHandlers.Search)
		r.Get("/properties/all", queryHandlers.ListAll)
		r.Get("/properties/featured", queryHandlers.Featured)
		r.Get("/properties/{slug}", queryHandlers.Details)
		r.Get("/properties/{slug}/similar", queryHandlers.Similar)

		r.Post("/properties", mutationHandlers.Create)
		r.Patch("/properties/{id}", mutationHandlers.Update)
		r.Delete("/properties/{id}", mutationHandlers.Delete)

		r.Get("/owners/{ownerID}/properties", queryHandlers.ByOwner)

		// роуты администратора
		r.Get("/admin/properties/{id}", queryHandlers.AdminByID)
	})

	return r
}

func NewServer(port string,
	queryHandlers *PropertyQueryHandlers,
	mutationHandlers *PropertyMutationHandlers,
	baseLogger core_port.LoggerPort) *Server {

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           NewRouter(queryHandlers, mutationHandlers, baseLogger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: baseLogger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST server", core_port.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST server...", nil)
	return s.httpServer.Shutdown(ctx)
}
