package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	streamhandler "github.com/audiolens/backend/internal/handler/stream"
	"github.com/audiolens/backend/internal/handler/upload"
	middlewarePkg "github.com/audiolens/backend/internal/middleware"
	analysisservice "github.com/audiolens/backend/internal/service/analysis"
	"github.com/audiolens/backend/internal/service/pipeline"
	"github.com/audiolens/backend/internal/service/session"
	streamsvc "github.com/audiolens/backend/internal/service/stream"
	"github.com/audiolens/backend/internal/storage"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(
	corsOrigin string,
	files *storage.FileStore,
	sessions *session.Store,
	pipelineSvc *pipeline.Service,
	analysisSvc *analysisservice.Service,
	orchestrator *streamsvc.Orchestrator,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsOrigin))

	uploadHandler := upload.New(files, sessions, pipelineSvc, analysisSvc)
	wsHandler := streamhandler.New(orchestrator)

	r.Route("/api", func(api chi.Router) {
		uploadHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
