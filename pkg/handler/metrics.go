package handler

import (
	"time"

	"github.com/nkhine/itools/pkg/resource"
)

// Metrics receives handler tree observations. A nil Metrics disables
// collection at no cost; see pkg/metrics for the Prometheus implementation.
type Metrics interface {
	// ObserveLoad records a Load of a node of the given kind.
	ObserveLoad(kind resource.Kind, bytes int, duration time.Duration, err error)

	// ObserveSave records a Save of a node of the given kind.
	ObserveSave(kind resource.Kind, bytes int, duration time.Duration, err error)

	// ObserveCommit records a Session.Commit that flushed saved nodes.
	ObserveCommit(saved int, duration time.Duration, err error)

	// RecordLookup records a child resolution served from the folder cache
	// (hit) or instantiated from the store (miss).
	RecordLookup(hit bool)

	// SetPending reports the number of nodes with pending changes.
	SetPending(n int)
}
