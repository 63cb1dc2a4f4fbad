// Package connector pulls campaign metrics from the external marketing
// platforms during the measure phase.
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

// Connector fetches the metrics one platform produced inside a time window.
type Connector interface {
	Name() string
	FetchMetrics(ctx context.Context, start, end time.Time) ([]models.Metric, error)
}

// CollectionError tags a fetch failure with the platform it came from, so
// the orchestrator can keep collecting from the others.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect from %s: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }
