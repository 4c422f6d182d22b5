package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskwatch/internal/config"
	"github.com/aristath/riskwatch/internal/database"
	"github.com/aristath/riskwatch/internal/events"
	"github.com/aristath/riskwatch/internal/modules/alerts"
	"github.com/aristath/riskwatch/internal/modules/risk"
	"github.com/aristath/riskwatch/internal/modules/stress"
	"github.com/aristath/riskwatch/internal/scheduler"
	"github.com/aristath/riskwatch/internal/server"
	"github.com/aristath/riskwatch/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting riskwatch")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	eventManager := events.NewManager(log)

	// Risk engine
	calculator := risk.NewCalculator(risk.CalculatorConfig{
		Simulations: cfg.MonteCarloSimulations,
	}, log)
	riskService := risk.NewService(calculator, risk.ServiceConfig{
		RiskFreeRateAnnual: cfg.RiskFreeRateAnnual,
	}, log)
	aggregator := risk.NewAggregator(log)
	snapshots := risk.NewSnapshotRepository(db, log)

	// Stress testing
	stressEngine := stress.NewEngine(stress.EngineConfig{
		VolatilityWeight: cfg.StressVolatilityWeight,
		LiquidityWeight:  cfg.StressLiquidityWeight,
		StrictScenarios:  cfg.StressStrictScenarios,
	}, log)

	// Alerting
	alertRepo := alerts.NewRepository(db.Conn(), log)
	alertRetention := time.Duration(cfg.AlertRetentionDays) * 24 * time.Hour
	alertEngine := alerts.NewEngine(alerts.EngineConfig{
		Cooldown:  cfg.AlertCooldown,
		Retention: alertRetention,
	}, alertRepo, eventManager, log)
	alertEngine.SetNotifier(alerts.NewLogNotifier(log))

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	systemHandlers := server.NewSystemHandlers(db, log)

	if err := registerJobs(sched, systemHandlers, db, cfg, alertEngine, alertRepo, alertRetention, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:   cfg.Port,
		Log:    log,
		DB:     db,
		Config: cfg,
		Modules: server.Modules{
			Risk:   risk.NewHandler(calculator, riskService, aggregator, snapshots, eventManager, log),
			Stress: stress.NewHandler(stressEngine, eventManager, log),
			Alerts: alerts.NewHandler(alertEngine, log),
			System: systemHandlers,
		},
		DevMode: cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	systemHandlers *server.SystemHandlers,
	db *database.DB,
	cfg *config.Config,
	alertEngine *alerts.Engine,
	alertRepo *alerts.Repository,
	alertRetention time.Duration,
	log zerolog.Logger,
) error {
	healthCheck := scheduler.NewHealthCheckJob(db, cfg.DatabasePath, log)
	if err := sched.AddJob("@every 6h", healthCheck); err != nil {
		return err
	}

	retention := scheduler.NewAlertRetentionJob(alertEngine, alertRepo, alertRetention, log)
	if err := sched.AddJob("@hourly", retention); err != nil {
		return err
	}

	// The risk sweep needs position/returns providers from the host
	// deployment; without them only the on-demand HTTP endpoints compute
	// risk. See scheduler.RiskSweepConfig.
	systemHandlers.SetJobs(nil, healthCheck, retention)

	return nil
}
