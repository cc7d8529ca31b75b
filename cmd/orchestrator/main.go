// Command orchestrator runs the pool's continuous Observe->Reason->Act->Reflect
// cycle loop and the Control API in a single process, since both share the
// same in-memory *pool.Ledger and *orchestrator.Orchestrator.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/cryptofunk/internal/api"
	"github.com/ajitpratap0/cryptofunk/internal/audit"
	"github.com/ajitpratap0/cryptofunk/internal/casestore"
	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/executor"
	"github.com/ajitpratap0/cryptofunk/internal/llm"
	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/ajitpratap0/cryptofunk/internal/oracle"
	"github.com/ajitpratap0/cryptofunk/internal/orchestrator"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/ajitpratap0/cryptofunk/internal/quote"
	"github.com/ajitpratap0/cryptofunk/internal/risk"
)

func main() {
	verifyKeys := flag.Bool("verify-keys", false, "Validate configuration and exit")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if *verifyKeys {
		os.Exit(runVerify(cfg))
	}

	log.Info().Str("app", cfg.App.Name).Str("env", cfg.App.Environment).Msg("starting poolmind orchestrator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.New(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable; case store and audit log fall back to in-memory/disabled")
	} else {
		defer database.Close()
	}

	var store casestore.Store
	if database != nil {
		store = casestore.NewPostgresStoreFromDB(database)
	} else {
		store = casestore.NewMemoryStore()
	}
	cases := casestore.OracleAdapter{Store: store}

	var auditLogger *audit.Logger
	if database != nil {
		auditLogger = audit.NewLogger(database.Pool(), true)
	} else {
		auditLogger = audit.NewLogger(nil, false)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; quote snapshots will not be cached")
		redisClient = nil
	}

	venues := buildVenueConfigs(cfg)
	quoteSource := quote.NewSource(cfg.Arbitrage.Symbols, venues, redisClient, 2*time.Second)

	strategy := buildOracle(cfg, cases)

	gate := buildRiskGate(ctx, cfg)

	exec := executor.New()

	natsConn, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable; cycle records will not be published")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	ledger := pool.New(decimal.NewFromFloat(cfg.Pool.InitialValue), cfg.Pool.InitialParticipants)

	orchCfg := orchestrator.Config{
		Symbols:                cfg.Arbitrage.Symbols,
		MinSpreadThresholdPct:  cfg.Arbitrage.MinSpreadThresholdPct,
		MaxRiskScore:           cfg.Risk.MaxRiskScore,
		CycleInterval:          cfg.Arbitrage.GetCycleInterval(),
		OracleTimeout:          cfg.Oracle.GetTimeout(),
		ErrorRateThreshold:     cfg.Risk.ErrorRateThreshold,
		ErrorRateMinOps:        cfg.Risk.ErrorRateMinOps,
		FallbackRatioThreshold: cfg.Risk.FallbackRatioThreshold,
		DrawdownThreshold:      cfg.Risk.DrawdownThreshold,
		CooldownPeriod:         cfg.Risk.GetCooldown(),
	}

	orch := orchestrator.New(orchCfg, ledger, quoteSource, strategy, gate, exec, detector.DefaultFeeModel, natsConn, log.Logger)

	apiServer := api.NewServer(api.Config{
		Host:         cfg.API.Host,
		Port:         cfg.API.Port,
		AppConfig:    cfg,
		Ledger:       ledger,
		Orchestrator: orch,
		Audit:        auditLogger,
	})

	metricsServer := metrics.NewServer(cfg.Monitoring.PrometheusPort, log.Logger)
	if cfg.Monitoring.EnableMetrics {
		if err := metricsServer.Start(); err != nil {
			log.Error().Err(err).Msg("failed to start metrics server")
		}
	}

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("control API server error")
		}
	}()

	go orch.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cancel()
	orch.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error stopping control API server")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error stopping metrics server")
	}

	log.Info().Msg("orchestrator shutdown complete")
}

// buildVenueConfigs maps the configured venues onto internal/quote's venue
// wiring, treating "binance" as the single live base venue and every other
// configured venue as synthetic (derived via OffsetBps).
func buildVenueConfigs(cfg *config.Config) []quote.VenueConfig {
	out := make([]quote.VenueConfig, 0, len(cfg.Venues))
	for name, vc := range cfg.Venues {
		out = append(out, quote.VenueConfig{
			Name:      name,
			APIKey:    vc.APIKey,
			SecretKey: vc.SecretKey,
			Sandbox:   vc.Sandbox,
			OffsetBps: vc.OffsetBps,
			BaseVenue: "binance",
		})
	}
	return out
}

// buildOracle wires the LLM-backed oracle when both an endpoint and an API
// key are configured, falling back to the deterministic tiered oracle
// otherwise.
func buildOracle(cfg *config.Config, cases oracle.CaseStore) oracle.StrategyOracle {
	if cfg.Oracle.Endpoint == "" || cfg.Oracle.APIKey == "" {
		log.Warn().Msg("oracle endpoint/key not configured; using deterministic fallback oracle only")
		return oracle.NewFallbackOracle()
	}

	fallback := llm.NewFallbackClient(llm.FallbackConfig{
		PrimaryConfig: llm.ClientConfig{
			Endpoint:    cfg.Oracle.Endpoint,
			APIKey:      cfg.Oracle.APIKey,
			Model:       cfg.Oracle.PrimaryModel,
			Temperature: cfg.Oracle.Temperature,
			MaxTokens:   cfg.Oracle.MaxTokens,
			Timeout:     cfg.Oracle.GetTimeout(),
		},
		PrimaryName: cfg.Oracle.PrimaryModel,
		FallbackConfigs: []llm.ClientConfig{{
			Endpoint:    cfg.Oracle.Endpoint,
			APIKey:      cfg.Oracle.APIKey,
			Model:       cfg.Oracle.FallbackModel,
			Temperature: cfg.Oracle.Temperature,
			MaxTokens:   cfg.Oracle.MaxTokens,
			Timeout:     cfg.Oracle.GetTimeout(),
		}},
		FallbackNames:        []string{cfg.Oracle.FallbackModel},
		CircuitBreakerConfig: llm.DefaultCircuitBreakerConfig(),
	})

	return oracle.NewLLMOracle(fallback, cases, cfg.Oracle.GetTimeout())
}

// buildRiskGate spawns the MCP risk-analyzer server when enabled, falling
// back to a gate that always returns the default degraded assessment.
func buildRiskGate(ctx context.Context, cfg *config.Config) *risk.Gate {
	if !cfg.MCP.RiskAnalyzer.Enabled {
		log.Warn().Msg("risk-analyzer MCP server disabled; risk gate always uses the default assessment")
		return risk.NewGate(nil)
	}

	breakers := risk.NewCircuitBreakerManager()
	client, err := risk.NewMCPClient(ctx, cfg.MCP.RiskAnalyzer.Name, cfg.MCP.RiskAnalyzer.Command,
		cfg.MCP.RiskAnalyzer.Args, cfg.MCP.RiskAnalyzer.TimeoutMS, breakers.RiskAnalyzer())
	if err != nil {
		log.Error().Err(err).Msg("failed to start risk-analyzer MCP server; risk gate degrades to default assessment")
		return risk.NewGate(nil)
	}
	return risk.NewGate(client)
}

// runVerify validates configuration and reachability without starting the
// cycle loop or control API, mirroring the teacher's --verify-keys flag.
func runVerify(cfg *config.Config) int {
	v := config.NewValidator(cfg, config.ValidatorOptions{
		VerifyConnectivity: true,
		VerifyAPIKeys:      true,
		Timeout:            5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := v.ValidateStartup(ctx); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return 1
	}

	log.Info().Msg("configuration valid")
	return 0
}
