package settlement

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker runs settlement cycles on a fixed interval inside the API
// process. The advisory lock inside the runner keeps it safe next to
// the standalone settler binary and other API replicas.
type Worker struct {
	runner   *Runner
	interval time.Duration
	stopCh   chan struct{}
}

func NewWorker(runner *Runner, interval time.Duration) *Worker {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &Worker{
		runner:   runner,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting settlement worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping settlement worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.runOnce()

	for {
		select {
		case <-ticker.C:
			w.runOnce()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := w.runner.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Settlement run failed")
	}
}
