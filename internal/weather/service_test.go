package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeForecaster struct {
	name     Source
	forecast Forecast
	err      error
	calls    int
	mu       sync.Mutex
}

func (f *fakeForecaster) Name() Source { return f.name }

func (f *fakeForecaster) FetchForecast(ctx context.Context, loc Coordinates) (Forecast, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return Forecast{}, f.err
	}
	fc := f.forecast
	fc.Source = f.name
	return fc, nil
}

type fakeReader struct {
	reading Reading
	gotAt   time.Time
}

func (f *fakeReader) Name() Source { return SourceOpenMeteo }

func (f *fakeReader) FetchReading(ctx context.Context, loc Coordinates, at time.Time) (Reading, error) {
	f.gotAt = at
	return f.reading, nil
}

type fakeStore struct {
	saved []Snapshot
	err   error
}

func (s *fakeStore) SaveSnapshot(snapshot Snapshot) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *fakeStore) GetLatest(spotID string) (Snapshot, error) {
	for i := len(s.saved) - 1; i >= 0; i-- {
		if s.saved[i].SpotID == spotID {
			return s.saved[i], nil
		}
	}
	return Snapshot{}, errors.New("not found")
}

func (s *fakeStore) GetRange(spotID string, from, to time.Time) ([]Snapshot, error) {
	var out []Snapshot
	for _, snap := range s.saved {
		if snap.SpotID == spotID && !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			out = append(out, snap)
		}
	}
	return out, nil
}

var testSpot = Spot{ID: "castelo", Name: "Castelo de Bode", Coords: Coordinates{Lat: 39.477037, Lon: -8.24094}}

func sampleForecast(temp float64, sky Sky) Forecast {
	return Forecast{
		Current: Reading{
			Temperature: temp,
			Humidity:    70,
			Pressure:    1015,
			Sky:         sky,
			Wind:        Wind{Speed: 12, Direction: West},
			Visibility:  10,
			MoonPhase:   MoonFull,
		},
		Daily: []DailyForecast{{Date: "2024-01-25", MaxTemp: temp + 4, MinTemp: temp - 4, MoonPhase: MoonFull}},
	}
}

func TestServiceForecastUsesPrimary(t *testing.T) {
	om := &fakeForecaster{name: SourceOpenMeteo, forecast: sampleForecast(14, SkyClear)}
	wa := &fakeForecaster{name: SourceWeatherAPI, forecast: sampleForecast(16, SkyRain)}
	svc := NewService(nil, nil, []ForecastProvider{om, wa})

	if svc.Primary() != SourceOpenMeteo {
		t.Fatalf("Primary() = %s, want openmeteo", svc.Primary())
	}

	fc, err := svc.Forecast(context.Background(), testSpot.Coords, "")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if fc.Source != SourceOpenMeteo || om.calls != 1 || wa.calls != 0 {
		t.Errorf("unexpected routing: source=%s om=%d wa=%d", fc.Source, om.calls, wa.calls)
	}

	if err := svc.SetPrimary(SourceWeatherAPI); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	fc, err = svc.Forecast(context.Background(), testSpot.Coords, "")
	if err != nil || fc.Source != SourceWeatherAPI {
		t.Errorf("after SetPrimary: source=%s err=%v", fc.Source, err)
	}

	fc, err = svc.Forecast(context.Background(), testSpot.Coords, SourceOpenMeteo)
	if err != nil || fc.Source != SourceOpenMeteo {
		t.Errorf("explicit source: source=%s err=%v", fc.Source, err)
	}
}

func TestServiceUnknownSource(t *testing.T) {
	svc := NewService(nil, nil, []ForecastProvider{&fakeForecaster{name: SourceOpenMeteo}})

	if _, err := svc.Forecast(context.Background(), testSpot.Coords, "darksky"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Forecast error = %v, want ErrUnknownSource", err)
	}
	if err := svc.SetPrimary("darksky"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("SetPrimary error = %v, want ErrUnknownSource", err)
	}
	if svc.Primary() != SourceOpenMeteo {
		t.Errorf("failed SetPrimary changed primary to %s", svc.Primary())
	}
}

func TestServiceSources(t *testing.T) {
	svc := NewService(nil, nil, []ForecastProvider{
		&fakeForecaster{name: SourceWeatherAPI},
		&fakeForecaster{name: SourceOpenMeteo},
	})

	got := svc.Sources()
	if len(got) != 2 || got[0] != SourceWeatherAPI || got[1] != SourceOpenMeteo {
		t.Errorf("Sources() = %v", got)
	}
}

func TestServiceReadingPassesWallClock(t *testing.T) {
	reader := &fakeReader{reading: Reading{Temperature: 24, Sky: SkyClear}}
	svc := NewService(nil, reader, nil)

	at := time.Date(2024, 1, 25, 14, 30, 0, 0, time.UTC)
	got, err := svc.Reading(context.Background(), testSpot.Coords, at)
	if err != nil {
		t.Fatalf("Reading: %v", err)
	}
	if got.Temperature != 24 || !reader.gotAt.Equal(at) {
		t.Errorf("Reading = %+v at %v", got, reader.gotAt)
	}

	if _, err := NewService(nil, nil, nil).Reading(context.Background(), testSpot.Coords, at); err == nil {
		t.Error("expected an error without a reading provider")
	}
}

func TestServiceCompare(t *testing.T) {
	om := &fakeForecaster{name: SourceOpenMeteo, forecast: sampleForecast(14, SkyClear)}
	wa := &fakeForecaster{name: SourceWeatherAPI, forecast: sampleForecast(18, SkyClear)}
	svc := NewService(nil, nil, []ForecastProvider{om, wa})

	cmp, err := svc.Compare(context.Background(), testSpot.Coords)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.Forecasts) != 2 || len(cmp.Errors) != 0 {
		t.Fatalf("forecasts=%d errors=%v", len(cmp.Forecasts), cmp.Errors)
	}
	if cmp.Consensus.Current.Temperature != 16 {
		t.Errorf("consensus temperature = %v, want 16", cmp.Consensus.Current.Temperature)
	}
	if got := cmp.Consensus.Sources; len(got) != 2 || got[0] != SourceOpenMeteo {
		t.Errorf("consensus sources = %v, want configuration order", got)
	}
}

func TestServiceComparePartialFailure(t *testing.T) {
	om := &fakeForecaster{name: SourceOpenMeteo, forecast: sampleForecast(14, SkyClear)}
	wa := &fakeForecaster{name: SourceWeatherAPI, err: ErrFetchFailed}
	svc := NewService(nil, nil, []ForecastProvider{om, wa})

	cmp, err := svc.Compare(context.Background(), testSpot.Coords)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if _, ok := cmp.Forecasts[SourceOpenMeteo]; !ok {
		t.Error("missing openmeteo forecast")
	}
	if _, ok := cmp.Errors[SourceWeatherAPI]; !ok {
		t.Error("weatherapi failure not reported")
	}
	if cmp.Consensus.Current.Temperature != 14 {
		t.Errorf("consensus temperature = %v, want 14", cmp.Consensus.Current.Temperature)
	}
}

func TestServiceCompareAllFail(t *testing.T) {
	svc := NewService(nil, nil, []ForecastProvider{
		&fakeForecaster{name: SourceOpenMeteo, err: errors.New("boom")},
		&fakeForecaster{name: SourceWeatherAPI, err: errors.New("boom")},
	})

	if _, err := svc.Compare(context.Background(), testSpot.Coords); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Compare error = %v, want ErrFetchFailed", err)
	}
	if _, err := NewService(nil, nil, nil).Compare(context.Background(), testSpot.Coords); err == nil {
		t.Error("expected an error without providers")
	}
}

func TestServiceFetchAndStore(t *testing.T) {
	store := &fakeStore{}
	om := &fakeForecaster{name: SourceOpenMeteo, forecast: sampleForecast(14, SkyClear)}
	svc := NewService(store, nil, []ForecastProvider{om})

	fixed := time.Date(2024, 1, 25, 6, 0, 0, 0, time.FixedZone("WET", 0))
	svc.now = func() time.Time { return fixed }
	svc.newID = func() string { return "snap-1" }

	if err := svc.FetchAndStore(context.Background(), testSpot); err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d snapshots, want 1", len(store.saved))
	}

	snap := store.saved[0]
	if snap.ID != "snap-1" || snap.SpotID != "castelo" || snap.Source != SourceOpenMeteo {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.FetchedAt.Equal(fixed) || snap.FetchedAt.Location() != time.UTC {
		t.Errorf("FetchedAt = %v, want %v in UTC", snap.FetchedAt, fixed)
	}

	latest, err := svc.GetLatest("castelo")
	if err != nil || latest.ID != "snap-1" {
		t.Errorf("GetLatest = %+v, %v", latest, err)
	}
	got, err := svc.GetRange("castelo", fixed.Add(-time.Hour), fixed.Add(time.Hour))
	if err != nil || len(got) != 1 {
		t.Errorf("GetRange = %d snapshots, %v", len(got), err)
	}
}

func TestServiceFetchAndStoreKeepsLastGood(t *testing.T) {
	store := &fakeStore{saved: []Snapshot{{ID: "old", SpotID: "castelo"}}}
	om := &fakeForecaster{name: SourceOpenMeteo, err: ErrFetchFailed}
	svc := NewService(store, nil, []ForecastProvider{om})

	err := svc.FetchAndStore(context.Background(), testSpot)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("error = %v, want ErrFetchFailed", err)
	}
	if len(store.saved) != 1 || store.saved[0].ID != "old" {
		t.Errorf("store was modified on failure: %+v", store.saved)
	}
}

func TestServiceFetchAndStoreSaveError(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	svc := NewService(store, nil, []ForecastProvider{&fakeForecaster{name: SourceOpenMeteo}})

	if err := svc.FetchAndStore(context.Background(), testSpot); err == nil {
		t.Error("expected the save error to surface")
	}
	if err := NewService(nil, nil, nil).FetchAndStore(context.Background(), testSpot); err == nil {
		t.Error("expected an error without a store")
	}
}
