package driving

import "context"

// Scheduler re-runs ingest on an interval.
type Scheduler interface {
	// Start returns immediately; passes run until ctx ends or Stop is called.
	Start(ctx context.Context) error

	// Stop blocks until an in-flight pass has returned.
	Stop() error
}
