package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/agents"
	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/archive"
	cfgpkg "github.com/local/jarvis/internal/config"
	"github.com/local/jarvis/internal/filetype"
	logpkg "github.com/local/jarvis/internal/logger"
	mpkg "github.com/local/jarvis/internal/metrics"
	"github.com/local/jarvis/internal/orchestrator"
	"github.com/local/jarvis/internal/pdftext"
	"github.com/local/jarvis/internal/search"
	"github.com/local/jarvis/internal/statuscheck"
	"github.com/local/jarvis/internal/store"
)

func main() {
	cfg := cfgpkg.Load()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	mpkg.Init()

	configured := cfg.Providers.Configured()
	if len(configured) == 0 {
		log.Warn().Msg("no LLM provider keys configured - generation requests will fail")
	} else {
		log.Info().Strs("providers", configured).Msg("LLM providers configured")
	}

	// Providers
	registry := ai.NewRegistry(cfg.Providers)
	generator := ai.NewGenerator(registry, ai.WithTimeout(cfg.Providers.Timeout))

	// Stages
	searcher := search.Build(cfg.Search, cfg.Providers.Gemini)
	if !searcher.Configured() {
		log.Warn().Msg("no web search backend available - research requests will fail at the search stage")
	} else {
		log.Info().Strs("backends", searcher.Names()).Msg("web search backends configured")
	}
	stages := orchestrator.Stages{
		Researcher:    agents.NewResearcher(searcher),
		Image:         agents.NewImageStage(),
		Source:        agents.NewSourceStage(),
		Report:        agents.NewReportStage(generator),
		Assistant:     agents.NewAssistant(generator),
		Document:      agents.NewDocumentAnalyzer(cfg.Providers.Gemini, generator),
		LocalDocument: agents.NewLocalDocumentAnalyzer(filetype.New(), pdftext.New(0)),
	}

	deps := orchestrator.Dependencies{
		Stages:         stages,
		Generator:      generator,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	checks := statuscheck.Options{Providers: configured, Search: searcher.Names()}

	// Status store (optional)
	if cfg.Status.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.TTL)
		if err != nil {
			log.Error().Err(err).Msg("redis status store unavailable - request tracking disabled")
		} else {
			defer rs.Close()
			deps.Status = orchestrator.NewStatusAdapter(rs)
			checks.Redis = rs
		}
	}

	// Report archive (optional)
	if cfg.Archive.Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		arc, err := archive.New(ctx, cfg.Archive)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("S3 archive unavailable - reports will not be archived")
		} else {
			deps.Archive = arc
			checks.Archive = arc
		}
	}
	deps.Health = statuscheck.New(checks)

	orch := orchestrator.New(deps)
	mux := http.NewServeMux()
	orch.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}
