// Package worker drains pending inbound messages through the automation
// engine in the background.
package worker

import (
	"context"
	"os"
	"sync"
	"time"

	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/domain"
	"sellerdesk-automation-api/internal/store"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 100
	cycleTimeout        = 50 * time.Second
)

// Worker periodically fetches pending messages and evaluates each one
// through the orchestrator. Messages are independent, so a batch is
// processed concurrently; the engine's idempotency claim makes re-processing
// after a crash safe.
type Worker struct {
	store  store.Storer
	engine *automation.Orchestrator
	mode   domain.EvaluationMode
	log    *zap.Logger

	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker creates a Worker. The evaluation mode comes from EXECUTION_MODE
// (first_match_only unless set to all_matches), the poll interval from
// WORKER_POLL_INTERVAL.
func NewWorker(s store.Storer, engine *automation.Orchestrator, log *zap.Logger) *Worker {
	mode := domain.FirstMatchOnly
	if domain.EvaluationMode(os.Getenv("EXECUTION_MODE")) == domain.AllMatches {
		mode = domain.AllMatches
	}

	interval := defaultPollInterval
	if raw := os.Getenv("WORKER_POLL_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			interval = parsed
		} else {
			log.Warn("invalid WORKER_POLL_INTERVAL, using default",
				zap.String("value", raw),
				zap.String("component", "worker"))
		}
	}

	return &Worker{
		store:    s,
		engine:   engine,
		mode:     mode,
		log:      log,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the worker loop in its own goroutine.
func (w *Worker) Start() {
	w.log.Info("starting worker",
		zap.Duration("interval", w.interval),
		zap.String("mode", string(w.mode)),
		zap.String("component", "worker"))

	go w.run()
}

// Stop signals the loop to exit and waits for the current cycle to finish.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once right away at startup.
	w.doWork()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.doWork()
		}
	}
}

func (w *Worker) doWork() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	messages, err := w.store.GetPendingMessages(ctx, defaultBatchSize)
	if err != nil {
		w.log.Error("could not fetch pending messages", zap.Error(err), zap.String("component", "worker"))
		return
	}
	if len(messages) == 0 {
		return
	}

	w.log.Info("processing pending messages",
		zap.Int("count", len(messages)),
		zap.String("component", "worker"))

	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func(msg domain.Message) {
			defer wg.Done()
			w.processMessage(ctx, msg)
		}(msg)
	}
	wg.Wait()
}

func (w *Worker) processMessage(ctx context.Context, msg domain.Message) {
	records, err := w.engine.EvaluateMessage(ctx, msg, w.mode)
	if err != nil {
		// Leave the message pending; the next cycle retries and the
		// idempotency claim prevents duplicate actions.
		w.log.Error("message evaluation failed",
			zap.Error(err),
			zap.String("message_id", msg.ID),
			zap.String("component", "worker"))
		return
	}

	if err := w.store.MarkMessageProcessed(ctx, msg.ID); err != nil {
		w.log.Error("could not mark message processed",
			zap.Error(err),
			zap.String("message_id", msg.ID),
			zap.String("component", "worker"))
		return
	}

	w.log.Info("message evaluated",
		zap.String("message_id", msg.ID),
		zap.Int("records", len(records)),
		zap.String("component", "worker"))
}
