package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration for the pool orchestrator,
// the control API, and the MCP tool servers.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	MCP        MCPConfig        `mapstructure:"mcp"`
	Pool       PoolConfig       `mapstructure:"pool"`
	Arbitrage  ArbitrageConfig  `mapstructure:"arbitrage"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Venues     map[string]VenueConfig `mapstructure:"venues"`
	API        APIConfig        `mapstructure:"api"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	SandboxMode bool   `mapstructure:"sandbox_mode"` // forces the executor to simulation regardless of environment
}

// DatabaseConfig contains PostgreSQL settings for the history store and case store.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains Redis settings for the quote snapshot cache.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig contains NATS settings for best-effort cycle-record publication.
type NATSConfig struct {
	URL             string `mapstructure:"url"`
	EnableJetStream bool   `mapstructure:"enable_jetstream"`
}

// OracleConfig contains the strategy oracle's LLM gateway settings.
type OracleConfig struct {
	Gateway       string  `mapstructure:"gateway"`        // "bifrost"
	Endpoint      string  `mapstructure:"endpoint"`
	APIKey        string  `mapstructure:"api_key"`
	PrimaryModel  string  `mapstructure:"primary_model"`
	FallbackModel string  `mapstructure:"fallback_model"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	EnableCaching bool    `mapstructure:"enable_caching"`
	Timeout       int     `mapstructure:"timeout"` // seconds
}

// MCPConfig configures the in-process client that calls the risk-analyzer
// MCP tool server over stdio.
type MCPConfig struct {
	RiskAnalyzer MCPServerConfig `mapstructure:"risk_analyzer"`
}

// MCPServerConfig describes how to launch and reach a stdio MCP tool server.
type MCPServerConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Name      string   `mapstructure:"name"`
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	TimeoutMS int      `mapstructure:"timeout_ms"`
}

// PoolConfig seeds the participant ledger at startup.
type PoolConfig struct {
	InitialValue        float64 `mapstructure:"initial_value"`        // default 100000
	InitialParticipants int     `mapstructure:"initial_participants"` // N seeded with +/-20% variation
}

// ArbitrageConfig controls the cycle cadence and detector/executor scope.
type ArbitrageConfig struct {
	CycleIntervalSeconds int      `mapstructure:"cycle_interval_seconds"`
	Symbols              []string `mapstructure:"symbols"` // ["BTC/USDT", "ETH/USDT"]
	MaxPositionSizePct   float64  `mapstructure:"max_position_size_pct"`
	MinSpreadThresholdPct float64 `mapstructure:"min_spread_threshold_pct"`
}

// RiskConfig controls the risk gate and the cycle-level circuit breaker.
type RiskConfig struct {
	MaxRiskScore            int     `mapstructure:"max_risk_score"`            // proposals scoring above this are rejected
	ErrorRateThreshold       float64 `mapstructure:"error_rate_threshold"`       // 0.15
	ErrorRateMinOps          int     `mapstructure:"error_rate_min_ops"`         // 10
	FallbackRatioThreshold   float64 `mapstructure:"fallback_ratio_threshold"`   // 0.30
	DrawdownThreshold        float64 `mapstructure:"drawdown_threshold"`         // 0.15
	CooldownSeconds          int     `mapstructure:"cooldown_seconds"`           // 300
}

// VenueConfig contains venue-specific credentials and simulation parameters.
type VenueConfig struct {
	APIKey    string  `mapstructure:"api_key"`
	SecretKey string  `mapstructure:"secret_key"`
	Sandbox   bool    `mapstructure:"sandbox"`
	OffsetBps float64 `mapstructure:"offset_bps"` // synthetic venues: bid/ask offset from the reference venue, in basis points
}

// APIConfig contains control-API REST settings.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MonitoringConfig contains Prometheus settings.
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("POOLMIND")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "poolmind")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.sandbox_mode", true)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "poolmind")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.pool_size", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enable_jetstream", false)

	v.SetDefault("oracle.gateway", "bifrost")
	v.SetDefault("oracle.endpoint", "http://localhost:8080/v1/chat/completions")
	v.SetDefault("oracle.primary_model", "claude-sonnet-4-20250514")
	v.SetDefault("oracle.fallback_model", "gpt-4-turbo")
	v.SetDefault("oracle.temperature", 0.7)
	v.SetDefault("oracle.max_tokens", 1200)
	v.SetDefault("oracle.enable_caching", true)
	v.SetDefault("oracle.timeout", 2) // seconds; the oracle must decide within the cycle's fast-path budget

	v.SetDefault("mcp.risk_analyzer.enabled", true)
	v.SetDefault("mcp.risk_analyzer.name", "risk-analyzer")
	v.SetDefault("mcp.risk_analyzer.command", "./bin/risk-analyzer-server")
	v.SetDefault("mcp.risk_analyzer.timeout_ms", 2000)

	v.SetDefault("pool.initial_value", 100000.0)
	v.SetDefault("pool.initial_participants", 10)

	v.SetDefault("arbitrage.cycle_interval_seconds", 30)
	v.SetDefault("arbitrage.symbols", []string{"BTC/USDT", "ETH/USDT"})
	v.SetDefault("arbitrage.max_position_size_pct", 0.1)
	v.SetDefault("arbitrage.min_spread_threshold_pct", 0.3)

	v.SetDefault("risk.max_risk_score", 7)
	v.SetDefault("risk.error_rate_threshold", 0.15)
	v.SetDefault("risk.error_rate_min_ops", 10)
	v.SetDefault("risk.fallback_ratio_threshold", 0.30)
	v.SetDefault("risk.drawdown_threshold", 0.15)
	v.SetDefault("risk.cooldown_seconds", 300)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8081)

	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)

	v.SetDefault("venues.binance.offset_bps", 0)
	v.SetDefault("venues.kraken.offset_bps", 8)
	v.SetDefault("venues.coinbase.offset_bps", -5)
}

// GetDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis address.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAPIAddr returns the control API listen address.
func (c *APIConfig) GetAPIAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetTimeout returns the oracle timeout as a time.Duration.
func (c *OracleConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetCycleInterval returns the cycle interval as a time.Duration.
func (c *ArbitrageConfig) GetCycleInterval() time.Duration {
	return time.Duration(c.CycleIntervalSeconds) * time.Second
}

// GetCooldown returns the circuit breaker cooldown as a time.Duration.
func (c *RiskConfig) GetCooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}
