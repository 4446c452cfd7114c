package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/audiolens/backend/internal/config"
	"github.com/audiolens/backend/internal/handler"
	analysisservice "github.com/audiolens/backend/internal/service/analysis"
	"github.com/audiolens/backend/internal/service/pipeline"
	"github.com/audiolens/backend/internal/service/session"
	streamsvc "github.com/audiolens/backend/internal/service/stream"
	"github.com/audiolens/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	files, err := storage.NewFileStore(cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("failed to prepare upload directory: %v", err)
	}
	sessions := session.NewStore()

	pipelineSvc := pipeline.NewService(
		pipeline.NewHTTPDiarizer(cfg.Pipeline.DiarizerURL, cfg.Pipeline.Timeout),
		pipeline.NewHTTPTranscriber(cfg.Pipeline.TranscriberURL, cfg.Pipeline.Timeout),
	)

	// The LLM classifier is optional: without Ark credentials the analysis
	// service runs on the lexicon scorer alone.
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing with lexicon-only sentence analysis")
			chatModel = nil
		} else {
			log.Println("Ark chat model initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, using lexicon-only sentence analysis")
	}

	analysisSvc, err := analysisservice.NewService(ctx, chatModel, analysisservice.Config{
		Enabled: cfg.AI.AnalysisLLMEnabled,
	})
	if err != nil {
		log.Fatalf("failed to initialize analysis service: %v", err)
	}
	if analysisSvc.Enabled() {
		log.Println("LLM sentence classifier enabled")
	} else if cfg.AI.AnalysisLLMEnabled {
		log.Println("LLM sentence classifier requested but chat model unavailable, falling back to lexicon scoring")
	}

	orchestrator := streamsvc.New(sessions, pipelineSvc, analysisSvc, &streamsvc.RandomPacer{
		Min: cfg.Stream.PacingMin,
		Max: cfg.Stream.PacingMax,
	})

	router := handler.NewRouter(cfg.Server.CORSOrigin, files, sessions, pipelineSvc, analysisSvc, orchestrator)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("AudioLens backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
