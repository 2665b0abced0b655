package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using its
// `env` and `envDefault` tags.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// CheckPort reports an error when port is outside 1-65535.
func CheckPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// CheckPositive reports an error when d is zero or negative.
func CheckPositive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return nil
}

// CheckFraction reports an error when v is outside [0, 1].
func CheckFraction(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
	}
	return nil
}
