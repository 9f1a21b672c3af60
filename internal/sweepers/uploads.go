// Package sweepers runs periodic maintenance in the background of the server.
package sweepers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/importusers/import-service/internal/storage"
)

// UploadSweeper periodically deletes staged uploads that no run picked up,
// such as files left behind by a crash between staging and running.
type UploadSweeper struct {
	storage  storage.Storage
	logger   *zerolog.Logger
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	stopChan chan struct{}
}

// NewUploadSweeper creates a sweeper removing uploads older than maxAge
func NewUploadSweeper(s storage.Storage, logger *zerolog.Logger, interval, maxAge time.Duration) *UploadSweeper {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UploadSweeper{
		storage:  s,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (s *UploadSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("max_age", s.maxAge).
		Msg("Starting upload sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Upload sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Upload sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to sweep staged uploads")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *UploadSweeper) Stop() {
	close(s.stopChan)
}

// Sweep deletes every staged upload last modified before now minus maxAge
// and returns how many were removed
func (s *UploadSweeper) Sweep(ctx context.Context) (int, error) {
	keys, err := s.storage.List(ctx, storage.UploadPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list staged uploads: %w", err)
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, key := range keys {
		info, err := s.storage.GetInfo(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to stat staged upload")
			continue
		}
		if !uploadedAt(info).Before(cutoff) {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Removed stale staged uploads")
	}
	return removed, nil
}

func uploadedAt(info *storage.FileInfo) time.Time {
	if info.Metadata != nil && !info.Metadata.UploadedAt.IsZero() {
		return info.Metadata.UploadedAt
	}
	return info.ModifiedAt
}
