package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"weather-proxy/internal/cache"
)

// Janitor periodically sweeps expired entries out of the cache. Expired
// entries already read as misses, so the sweep only reclaims memory.
type Janitor struct {
	scheduler *gocron.Scheduler
	cache     *cache.Cache
	interval  time.Duration
}

// New creates a new Janitor.
func New(c *cache.Cache, interval time.Duration) *Janitor {
	s := gocron.NewScheduler(time.UTC)
	return &Janitor{
		scheduler: s,
		cache:     c,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (j *Janitor) Start() error {
	_, err := j.scheduler.Every(j.interval).Do(func() {
		if removed := j.cache.Sweep(); removed > 0 {
			log.Printf("janitor: swept %d expired cache entries", removed)
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
