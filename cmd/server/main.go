package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mybenefitsvideos/campaign-backend/internal/config"
	"github.com/mybenefitsvideos/campaign-backend/internal/connector"
	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	httpapi "github.com/mybenefitsvideos/campaign-backend/internal/http"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/notify"
	"github.com/mybenefitsvideos/campaign-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "campaign-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	var notifier notify.Notifier
	if cfg.NotifyWebhookURL == "" {
		notifier = notify.LogNotifier{Logger: logger}
		logger.Info().Msg("using log notifier")
	} else {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL)
	}

	kpi, err := service.NewKPIRegistry(ctx, store, notifier, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load kpi targets")
	}

	metrics := &service.MetricsService{
		Store:      store,
		KPI:        kpi,
		Logger:     logger,
		CampaignID: cfg.CampaignID,
	}
	analysis := &service.AnalysisService{
		Store:  store,
		Config: service.DefaultAnalysisConfig(cfg.AnalysisWindowDays),
		Logger: logger,
	}
	decisions := &service.DecisionService{Store: store, Logger: logger}
	cycles := &service.CycleService{
		Store:             store,
		Metrics:           metrics,
		Analysis:          analysis,
		Connectors:        buildConnectors(cfg, logger),
		Notifier:          notifier,
		Logger:            logger,
		CycleDurationDays: cfg.CycleDurationDays,
		PhaseDays: map[models.CyclePhase]int{
			models.PhaseBuild:   cfg.BuildPhaseDays,
			models.PhaseMeasure: cfg.MeasurePhaseDays,
			models.PhaseAnalyze: cfg.AnalyzePhaseDays,
			models.PhaseDecide:  cfg.DecidePhaseDays,
		},
		ConnectorTimeout: cfg.ConnectorTimeout,
	}
	reports := &service.ReportService{Store: store, Logger: logger, CampaignID: cfg.CampaignID}

	router := httpapi.Router(cfg, store, httpapi.Services{
		Metrics:   metrics,
		KPI:       kpi,
		Analysis:  analysis,
		Decisions: decisions,
		Cycles:    cycles,
		Reports:   reports,
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

// buildConnectors uses the platform export APIs when configured and falls
// back to the mocks otherwise.
func buildConnectors(cfg config.Config, logger zerolog.Logger) []connector.Connector {
	var conns []connector.Connector
	if cfg.AnalyticsURL == "" {
		conns = append(conns, connector.AnalyticsMock{})
		logger.Info().Msg("using mock analytics connector")
	} else {
		conns = append(conns, &connector.HTTPConnector{Source: "ga4", BaseURL: cfg.AnalyticsURL})
	}
	if cfg.EmailPlatformURL == "" {
		conns = append(conns, connector.EmailMock{})
		logger.Info().Msg("using mock email connector")
	} else {
		conns = append(conns, &connector.HTTPConnector{Source: "email", BaseURL: cfg.EmailPlatformURL})
	}
	if cfg.CRMURL == "" {
		conns = append(conns, connector.CRMMock{})
		logger.Info().Msg("using mock crm connector")
	} else {
		conns = append(conns, &connector.HTTPConnector{Source: "crm", BaseURL: cfg.CRMURL})
	}
	return conns
}
