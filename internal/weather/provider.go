package weather

import (
	"context"
	"time"
)

// ReadingProvider resolves a single reading close to a given wall-clock time
// at a location. at is interpreted as local time at the coordinates; only its
// wall-clock fields are used.
type ReadingProvider interface {
	Name() Source
	FetchReading(ctx context.Context, loc Coordinates, at time.Time) (Reading, error)
}

// ForecastProvider resolves a "current + 7 days" forecast for a location.
type ForecastProvider interface {
	Name() Source
	FetchForecast(ctx context.Context, loc Coordinates) (Forecast, error)
}

// Store is the contract the snapshot stores must satisfy.
type Store interface {
	SaveSnapshot(snapshot Snapshot) error
	GetLatest(spotID string) (Snapshot, error)
	GetRange(spotID string, from, to time.Time) ([]Snapshot, error)
}
