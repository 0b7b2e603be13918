package amqp

import (
	"context"

	"financeflow/internal/log"
	"financeflow/internal/store"
)

// Publisher is the sending half of Client.
type Publisher interface {
	PublishSnapshotChanged(ctx context.Context, msg *SnapshotChangedMessage) error
}

// StoreListener forwards store events to pub. Publish failures are logged
// and dropped: the snapshot is already durable by the time listeners run.
func StoreListener(pub Publisher, logger *log.Logger) store.Listener {
	if logger == nil {
		logger = log.Default(log.ComponentAMQP)
	}
	logger = logger.WithComponent(log.ComponentAMQP)
	return func(ctx context.Context, ev store.Event) {
		msg := NewSnapshotChangedMessage(ev.Revision, ev.Reason, ev.At)
		if err := pub.PublishSnapshotChanged(ctx, msg); err != nil {
			logger.WarnContext(ctx, "Failed to publish snapshot changed",
				log.FieldRevision, ev.Revision,
				log.FieldReason, ev.Reason,
				log.FieldError, err)
		}
	}
}
