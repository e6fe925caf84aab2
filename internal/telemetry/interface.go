package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *EstimateSnapshot) error
	Close() error
}

// Repository defines the interface for estimate data storage
type Repository interface {
	Record(snapshot *EstimateSnapshot) error
	Close() error
}

// EstimateSnapshot is one recorded estimate query result
type EstimateSnapshot struct {
	Timestamp time.Time
	Left      ComponentMetrics
	Right     ComponentMetrics
	Case      ComponentMetrics
}

// ComponentMetrics carries raw and estimated state for one component
type ComponentMetrics struct {
	Raw        *int
	Estimate   float64
	Confidence float64
	IsReal     bool
	Charging   bool
}
