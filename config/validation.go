package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New()

// ValidateConfig checks struct constraints plus the rules that depend on the environment
func ValidateConfig(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
			}.Error())
		}
	}

	if cfg.RateLimit > 0 && cfg.RateLimitWindow <= 0 {
		problems = append(problems, ValidationError{
			Field:   "RateLimitWindow",
			Message: "must be positive when RateLimit is set",
		}.Error())
	}

	if cfg.Environment.IsProduction() && cfg.ActionTokenSecret == "" {
		problems = append(problems, ValidationError{
			Field:   "ActionTokenSecret",
			Message: "action_token_secret secret is required in production",
		}.Error())
	}

	if strings.HasPrefix(cfg.NutritionDataset, "s3://") {
		if _, _, err := ParseS3URI(cfg.NutritionDataset); err != nil {
			problems = append(problems, ValidationError{Field: "NutritionDataset", Message: err.Error()}.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(problems, "\n"))
	}

	return nil
}
