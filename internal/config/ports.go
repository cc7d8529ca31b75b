// Package config provides configuration management for the pool orchestrator.
// This file centralizes port constants to avoid duplication across services.
package config

// API and orchestrator ports
const (
	// APIServerPort is the default port for the control API server.
	APIServerPort = 8081

	// OrchestratorMetricsPort is the default Prometheus port served by the
	// orchestrator process.
	OrchestratorMetricsPort = 9100
)

// Infrastructure service ports
const (
	VaultPort    = 8200
	PostgresPort = 5432
	RedisPort    = 6379
	NATSPort     = 4222
)

// Monitoring service ports
const (
	PrometheusPort   = 9090
	GrafanaPort      = 3000
	NATSExporterPort = 7777
)
