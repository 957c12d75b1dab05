package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sheetdesk/internal/models"
	"sheetdesk/internal/telemetry"
)

// Sink persists audit entries.
type Sink interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Recorder writes audit entries in the background. A failed write is logged
// and counted but never reported to the request that triggered it.
type Recorder struct {
	sink    Sink
	logger  *zap.SugaredLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder. Each write gets its own context bounded by timeout.
func NewRecorder(sink Sink, logger *zap.SugaredLogger, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{sink: sink, logger: logger, timeout: timeout}
}

// Observe captures the entry for inv/out and records it when the outcome succeeded.
// It reports whether an entry was dispatched.
func (r *Recorder) Observe(inv Invocation, out Outcome) bool {
	entry, ok := Capture(inv, out)
	if !ok {
		return false
	}
	r.Record(entry)
	return true
}

// Record persists entry on a separate goroutine and returns immediately.
func (r *Recorder) Record(entry *models.AuditLog) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.AuditWritesTotal.WithLabelValues("failed").Inc()
				r.logger.Errorw("recovered panic while writing audit log",
					"panic", rec,
					"action", entry.Action,
					"target_id", entry.TargetID,
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.sink.Create(ctx, entry); err != nil {
			telemetry.AuditWritesTotal.WithLabelValues("failed").Inc()
			r.logger.Errorw("failed to write audit log",
				"error", err,
				"admin_id", entry.AdminID,
				"action", entry.Action,
				"target_type", entry.TargetType,
				"target_id", entry.TargetID,
			)
			return
		}
		telemetry.AuditWritesTotal.WithLabelValues("stored").Inc()
	}()
}

// Wait blocks until every dispatched write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
