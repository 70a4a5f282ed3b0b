package worker

// Optional in-process ticker for deployments without an external scheduler.
// The worker itself stays a pure function (ProcessarLote); this goroutine is
// just one possible driver of it.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartJobCron invokes the inventory job worker every interval until the
// context is cancelled. Disabled entirely when interval <= 0.
func StartJobCron(ctx context.Context, w *EstoqueWorker, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("job_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("job_cron: shutting down")
				return
			case <-ticker.C:
				resp, err := w.ProcessarLote(ctx, nil, defaultBatchSize)
				if err != nil {
					log.Error().Err(err).Msg("job_cron: batch failed")
					continue
				}
				if resp.Processed > 0 {
					log.Info().Int("processed", resp.Processed).Msg("job_cron: batch processed")
				}
			}
		}
	}()
}
