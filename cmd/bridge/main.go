package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/voicebridge/bridge/internal/bridge/adapters/highlevel"
	"github.com/voicebridge/bridge/internal/bridge/adapters/twilio"
	"github.com/voicebridge/bridge/internal/bridge/adapters/ultravox"
	"github.com/voicebridge/bridge/internal/bridge/app"
	"github.com/voicebridge/bridge/internal/bridge/repository"
	repoPg "github.com/voicebridge/bridge/internal/bridge/repository/postgres"
	httptransport "github.com/voicebridge/bridge/internal/bridge/transport/http"
	"github.com/voicebridge/bridge/internal/platform/config"
	"github.com/voicebridge/bridge/internal/platform/database"
	"github.com/voicebridge/bridge/internal/platform/logger"
)

const serviceName = "bridge"

func main() {
	// .env is a local-dev convenience; deployed environments inject real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration invalid", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Bridge service starting...", "port", cfg.Port, "base_url", cfg.PublicBaseURL())

	twilioClient := twilio.NewClient(appLogger, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	ultravoxClient := ultravox.NewClient(appLogger, cfg.UltravoxBaseURL, cfg.UltravoxAPIKey, nil)

	var crmService *app.CrmService
	if cfg.CrmEnabled() {
		crmClient := highlevel.NewClient(appLogger, cfg.HighLevelBaseURL, cfg.HighLevelAPIKey, cfg.HighLevelLocationID, nil)
		crmService = app.NewCrmService(crmClient, appLogger)
		appLogger.Info("CRM integration enabled")
	} else {
		appLogger.Warn("CRM integration disabled; tagging tools will not be declared")
	}

	// The call-audit log is optional: no DSN, no database.
	var callLog repository.CallLogRepository
	if cfg.PostgresDSN != "" {
		dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		callLog = repoPg.NewPgCallLogRepository(dbPool)
		appLogger.Info("Call audit log enabled")
	}

	builder, err := app.NewSessionBuilder(app.SessionBuilderOptions{
		BaseURL:       cfg.PublicBaseURL(),
		WebhookSecret: cfg.WebhookSecret,
		CrmEnabled:    cfg.CrmEnabled(),
		CrmWebhookURL: cfg.CrmWebhookURL,
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize session builder", "error", err)
		os.Exit(1)
	}

	orchestrator := app.NewOrchestrator(ultravoxClient, twilioClient, builder, callLog, appLogger)
	smsService := app.NewSmsService(twilioClient, appLogger)

	callHandler := httptransport.NewCallHandler(orchestrator, callLog, appLogger)
	var tagger httptransport.ContactTagger
	if crmService != nil {
		tagger = crmService
	}
	toolHandler := httptransport.NewToolHandler(smsService, tagger, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	callHandler.RegisterRoutes(r)
	toolHandler.RegisterRoutes(r)

	// Agent-facing callbacks are verified against the token the session
	// builder embeds in the tool definitions.
	r.Group(func(toolRouter chi.Router) {
		toolRouter.Use(httptransport.WebhookAuth(cfg.WebhookSecret, appLogger))
		toolHandler.RegisterToolRoutes(toolRouter)
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	appLogger.Info(fmt.Sprintf("Bridge server listening on port %d", cfg.Port))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Bridge service shut down.")
}
