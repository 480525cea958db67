package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic session sweep.
type Scheduler struct {
	cron      *cron.Cron
	sweepFunc func() int
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
	}
}

// SetSweepFunction installs the sweep callback; it returns the number of
// sessions evicted.
func (s *Scheduler) SetSweepFunction(f func() int) {
	s.sweepFunc = f
}

func (s *Scheduler) Start() error {
	if s.sweepFunc == nil {
		log.Println("sweep function not set, scheduler will not run")
		return nil
	}

	_, err := s.cron.AddFunc("@every 10m", func() {
		if n := s.sweepFunc(); n > 0 {
			log.Printf("session sweep evicted %d ended sessions", n)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("scheduler started, session sweep runs every 10m")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Println("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
