// Package security is the append-only log of security-relevant events:
// validation failures, duplicate transaction-hash attempts and refund
// intents. Events always reach the structured log; a storage sink is
// optional and its failures never break the purchase flow.
package security

import (
	"context"
	"time"

	"github.com/blockremit/billpay/logger"
	"github.com/blockremit/billpay/metrics"
	"github.com/blockremit/billpay/types"
)

// Sink persists security events. The store package implements this.
type Sink interface {
	RecordSecurityEvent(ctx context.Context, event types.SecurityEvent) error
}

// EventLog fans each event out to the structured logger, the metrics
// recorder and, when configured, a durable sink.
type EventLog struct {
	log  logger.Logger
	rec  metrics.Recorder
	sink Sink
}

func NewEventLog(log logger.Logger, rec metrics.Recorder, sink Sink) *EventLog {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &EventLog{log: log, rec: rec, sink: sink}
}

// Record stamps and emits one event.
func (e *EventLog) Record(ctx context.Context, event types.SecurityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	e.log.Warn("security event", map[string]any{
		"type":       string(event.Type),
		"category":   string(event.Category),
		"purchaseId": event.PurchaseID,
		"txHash":     event.TxHash,
		"userId":     event.UserID,
		"detail":     event.Detail,
	})
	e.rec.IncCounter("security_"+string(event.Type), map[string]string{"chain": ""})

	if e.sink != nil {
		if err := e.sink.RecordSecurityEvent(ctx, event); err != nil {
			e.log.Error("security event sink write failed", map[string]any{
				"type":  string(event.Type),
				"error": err.Error(),
			})
		}
	}
}
