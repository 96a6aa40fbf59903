package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"directory-pass/internal/infra/metrics"
	"directory-pass/internal/usecase"
)

// ExpiryWorker periodically flips lapsed passes to expired via the use case.
// Access decisions never depend on it; it keeps the table and the stats
// gauges honest.
type ExpiryWorker struct {
	interval time.Duration
	passUC   usecase.AccessPassUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, passUC usecase.AccessPassUseCase, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, passUC: passUC, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.passUC.FinishExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				w.log.Info().Int64("count", n).Msg("expired passes finished")
			}
			if counts, err := w.passUC.CountByStatus(ctx); err == nil {
				metrics.SetPassesTotal(counts)
			}
		}
	}
}
