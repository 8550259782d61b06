package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/fishing-log/internal/metrics"
	"github.com/i474232898/fishing-log/internal/weather"
)

// Refresher fetches and stores a forecast snapshot for a spot.
type Refresher interface {
	FetchAndStore(ctx context.Context, spot weather.Spot) error
}

// Scheduler periodically refreshes forecasts for the configured fishing spots.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	spots     []weather.Spot
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(spots []weather.Spot, interval time.Duration, service Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		spots:     spots,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.spots) == 0 {
		log.Println("INFO: scheduler: no spots configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every spot concurrently and returns the number of failures.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	log.Println("INFO: scheduler: running spot refresh job")

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, spot := range s.spots {
		spot := spot
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			err := s.service.FetchAndStore(ctx, spot)
			metrics.ObserveSpotRefresh(err)
			if err != nil {
				log.Printf("ERROR: scheduler: refresh failed for spot %s: %v", spot.ID, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	log.Printf("INFO: scheduler: completed spot refresh job (%d/%d ok)", len(s.spots)-failed, len(s.spots))
	return failed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
