// Package jobs runs the background maintenance schedule.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/examloop/examloop/internal/exam"
)

type Scheduler struct {
	scheduler *gocron.Scheduler
	store     exam.Store
	staleTTL  time.Duration
}

func New(store exam.Store, staleTTL time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		store:     store,
		staleTTL:  staleTTL,
	}
}

// Start schedules the maintenance tasks and runs them in the background.
func (s *Scheduler) Start() {
	// abandoned sittings keep the daily-quiz resume path honest: an
	// in-progress quiz from a previous day must not block a new one
	if _, err := s.scheduler.Every(1).Day().At("03:30").Do(s.expireStale); err != nil {
		log.Printf("jobs: schedule expire stale: %v", err)
	}
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) expireStale() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.store.ExpireStale(ctx, s.staleTTL)
	if err != nil {
		log.Printf("jobs: expire stale sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("jobs: marked %d stale sessions abandoned", n)
	}
}
