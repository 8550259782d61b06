package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates the weather providers and the spot snapshot store.
type Service struct {
	store     Store
	readings  ReadingProvider
	forecasts []ForecastProvider
	primary   Source
	now       func() time.Time
	newID     func() string
}

// NewService creates a new Service. The first forecast provider is the
// primary source unless SetPrimary picks another one.
func NewService(store Store, readings ReadingProvider, forecasts []ForecastProvider) *Service {
	s := &Service{
		store:     store,
		readings:  readings,
		forecasts: forecasts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if len(forecasts) > 0 {
		s.primary = forecasts[0].Name()
	}
	return s
}

// SetPrimary selects the source used when none is requested explicitly.
func (s *Service) SetPrimary(src Source) error {
	if _, err := s.forecaster(src); err != nil {
		return err
	}
	s.primary = src
	return nil
}

// Primary returns the default forecast source.
func (s *Service) Primary() Source {
	return s.primary
}

// Sources returns the configured forecast sources in order.
func (s *Service) Sources() []Source {
	out := make([]Source, 0, len(s.forecasts))
	for _, f := range s.forecasts {
		out = append(out, f.Name())
	}
	return out
}

func (s *Service) forecaster(src Source) (ForecastProvider, error) {
	for _, f := range s.forecasts {
		if f.Name() == src {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, src)
}

// Reading returns the point-in-time reading at the given local wall-clock time.
func (s *Service) Reading(ctx context.Context, loc Coordinates, at time.Time) (Reading, error) {
	if s.readings == nil {
		return Reading{}, fmt.Errorf("no reading provider configured")
	}
	return s.readings.FetchReading(ctx, loc, at)
}

// Forecast fetches a forecast from src, or from the primary source when src is empty.
func (s *Service) Forecast(ctx context.Context, loc Coordinates, src Source) (Forecast, error) {
	if src == "" {
		src = s.primary
	}
	f, err := s.forecaster(src)
	if err != nil {
		return Forecast{}, err
	}
	return f.FetchForecast(ctx, loc)
}

// Comparison holds each source's forecast alongside the merged current reading.
type Comparison struct {
	Forecasts map[Source]Forecast `json:"forecasts"`
	Errors    map[Source]string   `json:"errors,omitempty"`
	Consensus Consensus           `json:"consensus"`
}

// Compare fetches forecasts from every configured source concurrently and
// merges their current readings. It fails only if no source succeeds.
func (s *Service) Compare(ctx context.Context, loc Coordinates) (Comparison, error) {
	if len(s.forecasts) == 0 {
		return Comparison{}, fmt.Errorf("no weather providers configured")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[Source]Forecast)
		errs    = make(map[Source]string)
	)

	for _, f := range s.forecasts {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()

			fc, err := f.FetchForecast(ctx, loc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("provider %s forecast failed for %s: %v", f.Name(), loc.Key(), err)
				errs[f.Name()] = err.Error()
				return
			}
			results[f.Name()] = fc
		}()
	}

	wg.Wait()

	if len(results) == 0 {
		return Comparison{}, fmt.Errorf("%w: no source returned a forecast", ErrFetchFailed)
	}

	// Keep configuration order so consensus tie-breaks are stable.
	readings := make([]SourcedReading, 0, len(results))
	for _, f := range s.forecasts {
		if fc, ok := results[f.Name()]; ok {
			readings = append(readings, SourcedReading{Source: f.Name(), Reading: fc.Current})
		}
	}

	cmp := Comparison{
		Forecasts: results,
		Consensus: AggregateReadings(readings),
	}
	if len(errs) > 0 {
		cmp.Errors = errs
	}
	return cmp, nil
}

// FetchAndStore fetches the primary forecast for a spot and stores it as a snapshot.
func (s *Service) FetchAndStore(ctx context.Context, spot Spot) error {
	if s.store == nil {
		return fmt.Errorf("no snapshot store configured")
	}

	log.Printf("DEBUG: FetchAndStore called for spot %s (%s)", spot.ID, spot.Coords.Key())

	fc, err := s.Forecast(ctx, spot.Coords, "")
	if err != nil {
		// Keep the last good snapshot.
		return fmt.Errorf("refresh spot %s: %w", spot.ID, err)
	}

	snapshot := Snapshot{
		ID:        s.newID(),
		SpotID:    spot.ID,
		Source:    fc.Source,
		FetchedAt: s.now().UTC(),
		Forecast:  fc,
	}
	if err := s.store.SaveSnapshot(snapshot); err != nil {
		return fmt.Errorf("save snapshot for spot %s: %w", spot.ID, err)
	}
	return nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(spotID string) (Snapshot, error) {
	if s.store == nil {
		return Snapshot{}, errors.New("no snapshot store configured")
	}
	return s.store.GetLatest(spotID)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(spotID string, from, to time.Time) ([]Snapshot, error) {
	if s.store == nil {
		return nil, errors.New("no snapshot store configured")
	}
	return s.store.GetRange(spotID, from, to)
}
