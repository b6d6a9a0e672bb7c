package storage

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ==================== Flush Scheduler ====================
// Writes dirty pages back on a CRON schedule so a long-running embedder
// gets durability without calling Flush by hand.

// FlushScheduler periodically flushes the buffer pool.
type FlushScheduler struct {
	db   *DB
	cron *cron.Cron
}

// NewFlushScheduler validates spec (cron syntax with seconds, or the
// "@every 30s" form) and prepares a scheduler; call Start to arm it.
func NewFlushScheduler(db *DB, spec string) (*FlushScheduler, error) {
	loc, _ := time.LoadLocation("UTC")
	c := cron.New(cron.WithLocation(loc), cron.WithSeconds())
	s := &FlushScheduler{db: db, cron: c}
	if _, err := c.AddFunc(spec, s.runFlush); err != nil {
		return nil, fmt.Errorf("flush schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start arms the schedule.
func (s *FlushScheduler) Start() {
	s.cron.Start()
}

// Stop disarms the schedule and waits for a running flush to finish.
func (s *FlushScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *FlushScheduler) runFlush() {
	if err := s.db.Flush(); err != nil {
		log.Printf("scheduled flush failed: %v", err)
	}
}
