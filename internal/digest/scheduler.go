package digest

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the digest on the configured weekday. The underlying
// cron wakes every six hours; the day guard ensures at most one attempt
// per matching day and arms again once the day rolls over. A run that
// finds nothing to send still consumes the day.
type Scheduler struct {
	service *Service
	day     string

	mu          sync.Mutex
	lastSentDay string
	cron        *cron.Cron
}

// NewScheduler creates a scheduler for the given weekday name
// (e.g. "Monday").
func NewScheduler(service *Service, day string) *Scheduler {
	return &Scheduler{service: service, day: day}
}

// Check runs the day-guard logic for the given time. Exposed for the
// cron entry and for tests.
func (s *Scheduler) Check(now time.Time) {
	weekday := now.Weekday().String()

	s.mu.Lock()
	if weekday != s.day {
		s.lastSentDay = ""
		s.mu.Unlock()
		return
	}
	if weekday == s.lastSentDay {
		s.mu.Unlock()
		return
	}
	s.lastSentDay = weekday
	s.mu.Unlock()

	if _, err := s.service.Run(now); err != nil {
		log.Printf("digest: scheduled run failed: %v", err)
	}
}

// Start begins the six-hourly checks. Call Stop to shut down.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}
	s.cron = cron.New()
	s.cron.AddFunc("@every 6h", func() { s.Check(time.Now()) })
	s.cron.Start()
	log.Printf("digest: scheduler armed for %s", s.day)
}

// Stop halts the scheduled checks. Safe to call when never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
}
