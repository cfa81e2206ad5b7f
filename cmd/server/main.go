package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/chat-guard/internal/config"
	httphandler "github.com/MKhiriev/chat-guard/internal/handler/http"
	"github.com/MKhiriev/chat-guard/internal/identity"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/metrics"
	"github.com/MKhiriev/chat-guard/internal/server"
	"github.com/MKhiriev/chat-guard/internal/service"
	"github.com/MKhiriev/chat-guard/internal/store"
	"github.com/MKhiriev/chat-guard/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// a missing .env file is fine; real deployments set the environment
	_ = godotenv.Load()

	log := logger.NewLogger("chat-guard-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	if cfg.UsesDevelopmentKey() {
		log.Warn().Msg("development encryption key in effect: insecure for production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	storages, err := store.NewStorages(db, cfg.Storage.Local.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	provider, err := identity.NewRESTProvider(cfg.Identity, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating identity provider")
	}

	registry := prometheus.NewRegistry()
	services := service.NewServices(storages, provider, metrics.New(registry), *cfg, log)

	poller := workers.NewVerificationPoller(services.AuthService, cfg.Workers, log)
	go workers.NewWorkers(poller).Run(ctx)

	handler := httphandler.NewHandler(services, poller, registry, *cfg, log)

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
