package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/importusers/import-service/config"
)

// MaxBackoff caps the delay between connection attempts
const MaxBackoff = 30 * time.Second

// Backoff returns the delay before retry number attempt (0-based):
// initial * 2^attempt capped at MaxBackoff, plus up to 25% jitter
func Backoff(attempt int, initial time.Duration) time.Duration {
	delay := math.Min(float64(initial)*math.Pow(2, float64(attempt)), float64(MaxBackoff))
	jitter := rand.Float64() * 0.25 * delay
	return time.Duration(delay + jitter)
}

// ConnectWithRetry calls Connect up to cfg.ConnectAttempts times, waiting
// Backoff between attempts. A missing url is not retried.
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) error {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	attempts := max(cfg.ConnectAttempts, 1)

	var err error
	for attempt := range attempts {
		if err = Connect(ctx, cfg); err == nil || errors.Is(err, ErrNoURL) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := Backoff(attempt, cfg.ConnectBackoff)
		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Dur("retry_in", delay).
			Msg("Database connection failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}
