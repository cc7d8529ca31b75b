package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate performs comprehensive configuration validation.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateRedis()...)
	errors = append(errors, c.validateNATS()...)
	errors = append(errors, c.validateOracle()...)
	errors = append(errors, c.validatePool()...)
	errors = append(errors, c.validateArbitrage()...)
	errors = append(errors, c.validateRisk()...)
	errors = append(errors, c.validateVenues()...)
	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateEnvironmentRequirements()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{Field: "app.name", Message: "Application name is required"})
	}

	if c.App.Environment == "" {
		errors = append(errors, ValidationError{
			Field:   "app.environment",
			Message: "Environment is required (development, staging, or production)",
		})
	} else {
		validEnvs := []string{"development", "staging", "production"}
		valid := false
		for _, env := range validEnvs {
			if c.App.Environment == env {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   "app.environment",
				Message: fmt.Sprintf("Invalid environment '%s'. Must be one of: %v", c.App.Environment, validEnvs),
			})
		}
	}

	if c.App.LogLevel == "" {
		errors = append(errors, ValidationError{Field: "app.log_level", Message: "Log level is required (debug, info, warn, error)"})
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if c.Database.Host == "" {
		errors = append(errors, ValidationError{Field: "database.host", Message: "Database host is required"})
	}

	if c.Database.Port == 0 {
		errors = append(errors, ValidationError{Field: "database.port", Message: "Database port is required"})
	} else if c.Database.Port < 1 || c.Database.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Database.Port),
		})
	}

	if c.Database.User == "" {
		errors = append(errors, ValidationError{Field: "database.user", Message: "Database user is required"})
	}

	if c.Database.Database == "" {
		errors = append(errors, ValidationError{Field: "database.database", Message: "Database name is required"})
	}

	if c.Database.Password == "" && c.App.Environment != "development" {
		errors = append(errors, ValidationError{
			Field:   "database.password",
			Message: "Database password is required in non-development environments",
		})
	}

	if c.Database.PoolSize < 1 {
		errors = append(errors, ValidationError{Field: "database.pool_size", Message: "Database pool size must be at least 1"})
	}

	return errors
}

func (c *Config) validateRedis() ValidationErrors {
	var errors ValidationErrors

	if c.Redis.Host == "" {
		errors = append(errors, ValidationError{Field: "redis.host", Message: "Redis host is required"})
	}

	if c.Redis.Port == 0 {
		errors = append(errors, ValidationError{Field: "redis.port", Message: "Redis port is required"})
	} else if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "redis.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Redis.Port),
		})
	}

	return errors
}

func (c *Config) validateNATS() ValidationErrors {
	var errors ValidationErrors

	if c.NATS.URL == "" {
		errors = append(errors, ValidationError{Field: "nats.url", Message: "NATS URL is required"})
	} else if !strings.HasPrefix(c.NATS.URL, "nats://") {
		errors = append(errors, ValidationError{Field: "nats.url", Message: "NATS URL must start with 'nats://'"})
	}

	return errors
}

func (c *Config) validateOracle() ValidationErrors {
	var errors ValidationErrors

	if c.Oracle.Gateway == "" {
		errors = append(errors, ValidationError{Field: "oracle.gateway", Message: "Oracle gateway is required"})
	}

	if c.Oracle.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "oracle.endpoint", Message: "Oracle endpoint is required"})
	}

	if c.Oracle.PrimaryModel == "" {
		errors = append(errors, ValidationError{Field: "oracle.primary_model", Message: "Oracle primary model is required"})
	}

	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "oracle.temperature",
			Message: fmt.Sprintf("Invalid temperature %.2f. Must be between 0-2", c.Oracle.Temperature),
		})
	}

	if c.Oracle.MaxTokens < 1 {
		errors = append(errors, ValidationError{Field: "oracle.max_tokens", Message: "Oracle max_tokens must be at least 1"})
	}

	if c.Oracle.Timeout < 1 {
		errors = append(errors, ValidationError{Field: "oracle.timeout", Message: "Oracle timeout must be at least 1 second"})
	}

	return errors
}

func (c *Config) validatePool() ValidationErrors {
	var errors ValidationErrors

	if c.Pool.InitialValue <= 0 {
		errors = append(errors, ValidationError{Field: "pool.initial_value", Message: "Initial pool value must be greater than 0"})
	}

	if c.Pool.InitialParticipants < 0 {
		errors = append(errors, ValidationError{Field: "pool.initial_participants", Message: "Initial participant count must be non-negative"})
	}

	return errors
}

func (c *Config) validateArbitrage() ValidationErrors {
	var errors ValidationErrors

	if c.Arbitrage.CycleIntervalSeconds < 1 {
		errors = append(errors, ValidationError{Field: "arbitrage.cycle_interval_seconds", Message: "Cycle interval must be at least 1 second"})
	}

	if len(c.Arbitrage.Symbols) == 0 {
		errors = append(errors, ValidationError{Field: "arbitrage.symbols", Message: "At least one trading symbol is required"})
	}

	if c.Arbitrage.MaxPositionSizePct <= 0 || c.Arbitrage.MaxPositionSizePct > 1 {
		errors = append(errors, ValidationError{
			Field:   "arbitrage.max_position_size_pct",
			Message: fmt.Sprintf("Invalid max_position_size_pct %.2f. Must be between 0-1", c.Arbitrage.MaxPositionSizePct),
		})
	}

	if c.Arbitrage.MinSpreadThresholdPct < 0 {
		errors = append(errors, ValidationError{Field: "arbitrage.min_spread_threshold_pct", Message: "min_spread_threshold_pct must be non-negative"})
	}

	return errors
}

func (c *Config) validateRisk() ValidationErrors {
	var errors ValidationErrors

	if c.Risk.MaxRiskScore < 1 || c.Risk.MaxRiskScore > 10 {
		errors = append(errors, ValidationError{
			Field:   "risk.max_risk_score",
			Message: fmt.Sprintf("Invalid max_risk_score %d. Must be between 1-10", c.Risk.MaxRiskScore),
		})
	}

	if c.Risk.ErrorRateThreshold <= 0 || c.Risk.ErrorRateThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.error_rate_threshold",
			Message: fmt.Sprintf("Invalid error_rate_threshold %.2f. Must be between 0-1", c.Risk.ErrorRateThreshold),
		})
	}

	if c.Risk.FallbackRatioThreshold <= 0 || c.Risk.FallbackRatioThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.fallback_ratio_threshold",
			Message: fmt.Sprintf("Invalid fallback_ratio_threshold %.2f. Must be between 0-1", c.Risk.FallbackRatioThreshold),
		})
	}

	if c.Risk.DrawdownThreshold <= 0 || c.Risk.DrawdownThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.drawdown_threshold",
			Message: fmt.Sprintf("Invalid drawdown_threshold %.2f. Must be between 0-1", c.Risk.DrawdownThreshold),
		})
	}

	if c.Risk.CooldownSeconds < 0 {
		errors = append(errors, ValidationError{Field: "risk.cooldown_seconds", Message: "cooldown_seconds must be non-negative"})
	}

	return errors
}

func (c *Config) validateVenues() ValidationErrors {
	var errors ValidationErrors

	if len(c.Venues) == 0 {
		errors = append(errors, ValidationError{Field: "venues", Message: "At least one venue must be configured"})
	}

	return errors
}

func (c *Config) validateAPI() ValidationErrors {
	var errors ValidationErrors

	if c.API.Port == 0 {
		errors = append(errors, ValidationError{Field: "api.port", Message: "API port is required"})
	} else if c.API.Port < 1 || c.API.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "api.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.API.Port),
		})
	}

	return errors
}

func (c *Config) validateEnvironmentRequirements() ValidationErrors {
	var errors ValidationErrors

	if c.App.Environment == "production" {
		secretErrors := ValidateProductionSecrets(c)
		errors = append(errors, secretErrors...)

		for venueName, venueConfig := range c.Venues {
			if venueConfig.Sandbox {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("venues.%s.sandbox", venueName),
					Message: "Sandbox mode must be disabled in production venue credentials",
				})
			}
		}

		if c.Database.SSLMode == "disable" {
			errors = append(errors, ValidationError{Field: "database.ssl_mode", Message: "SSL must be enabled for database in production"})
		}
	}

	criticalEnvVars := []string{"DATABASE_URL"}

	for _, envVar := range criticalEnvVars {
		if os.Getenv(envVar) == "" && c.App.Environment == "production" {
			if envVar == "DATABASE_URL" {
				if c.Database.Host != "" && c.Database.Database != "" {
					continue
				}
			}

			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("env.%s", envVar),
				Message: fmt.Sprintf("Environment variable %s is required in production", envVar),
			})
		}
	}

	return errors
}

// ValidateAndLoad loads and validates configuration.
func ValidateAndLoad(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
