package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors: " + strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator provides validation utilities
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Errors returns all validation errors
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
}

// MinLength validates minimum string length
func (v *Validator) MinLength(field, value string, min int) {
	if len(value) < min {
		v.AddError(field, fmt.Sprintf("must be at least %d characters", min))
	}
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) {
	if len(value) > max {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// MinValue validates minimum numeric value
func (v *Validator) MinValue(field string, value, min float64) {
	if value < min {
		v.AddError(field, fmt.Sprintf("must be at least %v", min))
	}
}

// MaxValue validates maximum numeric value
func (v *Validator) MaxValue(field string, value, max float64) {
	if value > max {
		v.AddError(field, fmt.Sprintf("must be at most %v", max))
	}
}

// Positive validates that a number is positive
func (v *Validator) Positive(field string, value float64) {
	if value <= 0 {
		v.AddError(field, "must be positive")
	}
}

// NonNegative validates that a number is non-negative
func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.AddError(field, "must be non-negative")
	}
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// Email validates email format
func (v *Validator) Email(field, value string) {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(value) {
		v.AddError(field, "must be a valid email address")
	}
}

// UUID validates UUID format
func (v *Validator) UUID(field, value string) {
	if _, err := uuid.Parse(value); err != nil {
		v.AddError(field, "must be a valid UUID")
	}
}

// Symbol validates trading pair symbol format (e.g., BTC/USDT)
func (v *Validator) Symbol(field, value string) {
	symbolRegex := regexp.MustCompile(`^[A-Z]{2,10}/[A-Z]{2,10}$`)
	if !symbolRegex.MatchString(value) {
		v.AddError(field, "must be a valid symbol (e.g., BTC/USDT)")
	}
}

// Alphanumeric validates that a string contains only alphanumeric characters
func (v *Validator) Alphanumeric(field, value string) {
	alphanumericRegex := regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	if !alphanumericRegex.MatchString(value) {
		v.AddError(field, "must contain only alphanumeric characters")
	}
}

// NoSpecialChars validates that a string doesn't contain special characters that could be used for injection
func (v *Validator) NoSpecialChars(field, value string) {
	// Disallow characters commonly used in injection attacks
	dangerousChars := []string{"<", ">", "'", "\"", ";", "--", "/*", "*/", "DROP", "SELECT", "INSERT", "UPDATE", "DELETE"}
	upperValue := strings.ToUpper(value)
	for _, char := range dangerousChars {
		if strings.Contains(upperValue, char) {
			v.AddError(field, "contains disallowed characters")
			return
		}
	}
}

// ParticipantValidator validates pool participant operations (AddParticipant,
// RequestWithdrawal).
type ParticipantValidator struct {
	*Validator
}

// NewParticipantValidator creates a validator for participant operations
func NewParticipantValidator() *ParticipantValidator {
	return &ParticipantValidator{
		Validator: NewValidator(),
	}
}

// ValidateParticipantID validates a participant identifier
func (v *ParticipantValidator) ValidateParticipantID(id string) {
	v.Required("participant_id", id)
	if v.HasErrors() {
		return
	}
	v.MinLength("participant_id", id, 1)
	v.MaxLength("participant_id", id, 128)
	v.NoSpecialChars("participant_id", id)
}

// ValidateInvestment validates an AddParticipant investment amount
func (v *ParticipantValidator) ValidateInvestment(amount float64) {
	v.Positive("investment", amount)
	v.MinValue("investment", amount, 1)        // Minimum $1
	v.MaxValue("investment", amount, 100000000) // Max $100M
}

// ValidateWithdrawalAmount validates a RequestWithdrawal amount
func (v *ParticipantValidator) ValidateWithdrawalAmount(amount float64) {
	v.Positive("amount", amount)
	v.MaxValue("amount", amount, 100000000) // Max $100M
}

// ConfigValidator validates configuration updates
type ConfigValidator struct {
	*Validator
}

// NewConfigValidator creates a validator for configuration
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		Validator: NewValidator(),
	}
}

// ValidateRiskSettings validates risk management settings: maximum notional per
// trade, maximum pool drawdown, and the oracle's minimum confidence gate.
func (v *ConfigValidator) ValidateRiskSettings(maxTradeSizeUSD, maxDrawdownPct, minConfidence float64) {
	if maxTradeSizeUSD != 0 {
		v.Positive("max_trade_size_usd", maxTradeSizeUSD)
		v.MaxValue("max_trade_size_usd", maxTradeSizeUSD, 1000000)
	}

	if maxDrawdownPct != 0 {
		v.Positive("max_drawdown_pct", maxDrawdownPct)
		v.MaxValue("max_drawdown_pct", maxDrawdownPct, 100) // Max 100% drawdown
	}

	if minConfidence != 0 {
		v.MinValue("min_confidence", minConfidence, 0)
		v.MaxValue("min_confidence", minConfidence, 1) // 0-1 range
	}
}

// SanitizeInput sanitizes user input to prevent injection attacks
func SanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	// Limit length to prevent DoS
	if len(input) > 10000 {
		input = input[:10000]
	}

	return input
}

// SanitizeSymbol sanitizes and normalizes a trading symbol
func SanitizeSymbol(symbol string) string {
	// Convert to uppercase
	symbol = strings.ToUpper(symbol)

	// Remove whitespace
	symbol = strings.ReplaceAll(symbol, " ", "")

	// Ensure it contains a slash
	if !strings.Contains(symbol, "/") {
		// Try to split at common positions
		if len(symbol) >= 6 {
			symbol = symbol[:len(symbol)/2] + "/" + symbol[len(symbol)/2:]
		}
	}

	return symbol
}
