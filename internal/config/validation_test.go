package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getValidConfig returns a valid configuration for testing.
func getValidConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "poolmind",
			Version:     "0.1.0",
			Environment: "development",
			LogLevel:    "info",
			SandboxMode: true,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "secure_password",
			Database: "poolmind",
			SSLMode:  "disable",
			PoolSize: 10,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			DB:   0,
		},
		NATS: NATSConfig{
			URL:             "nats://localhost:4222",
			EnableJetStream: false,
		},
		Oracle: OracleConfig{
			Gateway:       "bifrost",
			Endpoint:      "http://localhost:8080/v1/chat/completions",
			PrimaryModel:  "claude-sonnet-4",
			FallbackModel: "gpt-4-turbo",
			Temperature:   0.7,
			MaxTokens:     1200,
			EnableCaching: true,
			Timeout:       2,
		},
		Pool: PoolConfig{
			InitialValue:        100000,
			InitialParticipants: 10,
		},
		Arbitrage: ArbitrageConfig{
			CycleIntervalSeconds:  30,
			Symbols:               []string{"BTC/USDT", "ETH/USDT"},
			MaxPositionSizePct:    0.1,
			MinSpreadThresholdPct: 0.3,
		},
		Risk: RiskConfig{
			MaxRiskScore:           7,
			ErrorRateThreshold:     0.15,
			ErrorRateMinOps:        10,
			FallbackRatioThreshold: 0.30,
			DrawdownThreshold:      0.15,
			CooldownSeconds:        300,
		},
		Venues: map[string]VenueConfig{
			"binance": {APIKey: "test_api_key", SecretKey: "test_secret_key", Sandbox: true},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Monitoring: MonitoringConfig{
			PrometheusPort: 9100,
			EnableMetrics:  true,
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	cfg := getValidConfig()
	err := cfg.Validate()
	assert.NoError(t, err, "valid configuration should not produce errors")
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name"},
		{"missing environment", func(c *Config) { c.App.Environment = "" }, "app.environment"},
		{"invalid environment", func(c *Config) { c.App.Environment = "invalid_env" }, "Invalid environment"},
		{"missing log level", func(c *Config) { c.App.LogLevel = "" }, "app.log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateDatabase(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"missing host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"missing port", func(c *Config) { c.Database.Port = 0 }, "database.port"},
		{"invalid port - too high", func(c *Config) { c.Database.Port = 70000 }, "Invalid port"},
		{"invalid port - negative", func(c *Config) { c.Database.Port = -1 }, "Invalid port"},
		{"missing user", func(c *Config) { c.Database.User = "" }, "database.user"},
		{"missing database name", func(c *Config) { c.Database.Database = "" }, "database.database"},
		{"missing password in production", func(c *Config) {
			c.App.Environment = "production"
			c.Database.Password = ""
		}, "password is required"},
		{"invalid pool size", func(c *Config) { c.Database.PoolSize = 0 }, "pool size must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateRedis(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"missing host", func(c *Config) { c.Redis.Host = "" }, "redis.host"},
		{"missing port", func(c *Config) { c.Redis.Port = 0 }, "redis.port"},
		{"invalid port", func(c *Config) { c.Redis.Port = 70000 }, "Invalid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateNATS(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"missing URL", func(c *Config) { c.NATS.URL = "" }, "nats.url"},
		{"invalid URL format", func(c *Config) { c.NATS.URL = "http://localhost:4222" }, "must start with 'nats://'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateOracle(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"missing gateway", func(c *Config) { c.Oracle.Gateway = "" }, "oracle.gateway"},
		{"missing endpoint", func(c *Config) { c.Oracle.Endpoint = "" }, "oracle.endpoint"},
		{"missing primary model", func(c *Config) { c.Oracle.PrimaryModel = "" }, "oracle.primary_model"},
		{"invalid temperature - too low", func(c *Config) { c.Oracle.Temperature = -0.1 }, "Invalid temperature"},
		{"invalid temperature - too high", func(c *Config) { c.Oracle.Temperature = 2.5 }, "Invalid temperature"},
		{"invalid max_tokens", func(c *Config) { c.Oracle.MaxTokens = 0 }, "max_tokens must be at least 1"},
		{"invalid timeout", func(c *Config) { c.Oracle.Timeout = 0 }, "timeout must be at least 1 second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidatePool(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"zero initial value", func(c *Config) { c.Pool.InitialValue = 0 }, "Initial pool value must be greater than 0"},
		{"negative initial value", func(c *Config) { c.Pool.InitialValue = -1 }, "Initial pool value must be greater than 0"},
		{"negative participants", func(c *Config) { c.Pool.InitialParticipants = -1 }, "must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateArbitrage(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"zero cycle interval", func(c *Config) { c.Arbitrage.CycleIntervalSeconds = 0 }, "Cycle interval must be at least 1 second"},
		{"no symbols", func(c *Config) { c.Arbitrage.Symbols = []string{} }, "At least one trading symbol"},
		{"invalid max position pct - too low", func(c *Config) { c.Arbitrage.MaxPositionSizePct = 0 }, "Invalid max_position_size_pct"},
		{"invalid max position pct - too high", func(c *Config) { c.Arbitrage.MaxPositionSizePct = 1.5 }, "Invalid max_position_size_pct"},
		{"negative min spread", func(c *Config) { c.Arbitrage.MinSpreadThresholdPct = -1 }, "must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateRisk(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"invalid max_risk_score - too low", func(c *Config) { c.Risk.MaxRiskScore = 0 }, "Invalid max_risk_score"},
		{"invalid max_risk_score - too high", func(c *Config) { c.Risk.MaxRiskScore = 11 }, "Invalid max_risk_score"},
		{"invalid error_rate_threshold", func(c *Config) { c.Risk.ErrorRateThreshold = 0 }, "Invalid error_rate_threshold"},
		{"invalid fallback_ratio_threshold", func(c *Config) { c.Risk.FallbackRatioThreshold = 1.5 }, "Invalid fallback_ratio_threshold"},
		{"invalid drawdown_threshold", func(c *Config) { c.Risk.DrawdownThreshold = 0 }, "Invalid drawdown_threshold"},
		{"negative cooldown", func(c *Config) { c.Risk.CooldownSeconds = -1 }, "cooldown_seconds must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateVenues(t *testing.T) {
	cfg := getValidConfig()
	cfg.Venues = map[string]VenueConfig{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one venue must be configured")
}

func TestValidateAPI(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{"missing port", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"invalid port - too high", func(c *Config) { c.API.Port = 70000 }, "Invalid port"},
		{"invalid port - negative", func(c *Config) { c.API.Port = -1 }, "Invalid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateEnvironmentRequirements(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name: "sandbox credentials enabled in production",
			modify: func(c *Config) {
				c.App.Environment = "production"
				c.Venues["binance"] = VenueConfig{APIKey: "key", SecretKey: "secret", Sandbox: true}
			},
			expectError: "Sandbox mode must be disabled in production venue credentials",
		},
		{
			name: "SSL disabled in production",
			modify: func(c *Config) {
				c.App.Environment = "production"
				c.Database.SSLMode = "disable"
			},
			expectError: "SSL must be enabled for database in production",
		},
		{
			name: "DATABASE_URL missing in production with incomplete config",
			modify: func(c *Config) {
				c.App.Environment = "production"
				c.Database.Host = ""
				_ = os.Unsetenv("DATABASE_URL")
			},
			expectError: "DATABASE_URL is required in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errors := ValidationErrors{
		{Field: "field1", Message: "error message 1"},
		{Field: "field2", Message: "error message 2"},
		{Field: "field3", Message: "error message 3"},
	}

	errMsg := errors.Error()

	assert.Contains(t, errMsg, "Configuration validation failed with 3 error(s)")
	assert.Contains(t, errMsg, "1. field1: error message 1")
	assert.Contains(t, errMsg, "2. field2: error message 2")
	assert.Contains(t, errMsg, "3. field3: error message 3")
	assert.Contains(t, errMsg, "Please fix the above errors and try again")
}

func TestValidationErrors_Empty(t *testing.T) {
	errors := ValidationErrors{}
	assert.Equal(t, "", errors.Error())
}

func TestValidateAndLoad(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	require.NoError(t, err)
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	invalidConfig := `
app:
  name: ""
  environment: "development"
  log_level: "info"
arbitrage:
  symbols: []
`
	_, err = tmpfile.WriteString(invalidConfig)
	require.NoError(t, err)
	_ = tmpfile.Close()

	_, err = Load(tmpfile.Name())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "app.name") || strings.Contains(err.Error(), "symbols"))
}
