package ports

import "context"

// AuditConsumer drains the audit queue into the service log. Connect and Init
// run once at start-up; DeliveryWorker blocks until ctx is cancelled.
type AuditConsumer interface {
	Connect(ctx context.Context, dsn string) error
	Init() error
	DeliveryWorker(ctx context.Context)
}
