package exam

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper periodically autosubmits in_progress attempts whose deadline has
// passed without a live session, e.g. after a process restart. Overlap with
// live countdown timers is harmless: Submit accepts at most one submission.
type Sweeper struct {
	svc       *Service
	scheduler *gocron.Scheduler
}

func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	s := gocron.NewScheduler(time.UTC)
	sw := &Sweeper{svc: svc, scheduler: s}
	s.Every(interval).Do(sw.sweep)
	return sw
}

// Start begins sweeping in the background.
func (s *Sweeper) Start() { s.scheduler.StartAsync() }

// Stop terminates the schedule.
func (s *Sweeper) Stop() { s.scheduler.Stop() }

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.svc.store.ListExpiredInProgress(ctx, s.svc.now().Unix())
	if err != nil {
		log.Printf("sweep expired attempts: %v", err)
		return
	}
	for _, a := range expired {
		if s.svc.live.get(a.ID) != nil {
			continue // a live countdown owns this one
		}
		if _, err := s.svc.Submit(ctx, a.ID); err != nil {
			log.Printf("sweep submit attempt %s: %v", a.ID, err)
		}
	}
}
