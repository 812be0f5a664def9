/*
monitor.go - Overdue resumption monitor

PURPOSE:
  Periodically looks for APPROVED leave whose end date has passed without
  a completion and logs each one, so administrators can chase the member
  and confirm resumption through POST /api/leaves/{id}/complete.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Read-only: it never changes a leave or assignment status. Resumption
    stays a manual confirmation.
  - Logs a warning per overdue request and one summary line per check

CONFIGURATION:
  - monitor.interval: How often to check (default: 1 hour)
  - monitor.enabled:  Whether the monitor runs (default: true)

USAGE:
  m := NewResumptionMonitor(leaves, logger, time.Hour)
  m.Start()
  // ... later
  m.Stop()

SEE ALSO:
  - leave/usage.go: Service.Overdue
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/leave"
)

// ResumptionMonitor reports approved leave past its end date.
type ResumptionMonitor struct {
	Leaves        *leave.Service
	CheckInterval time.Duration
	Enabled       bool

	logger *zap.Logger
	today  func() core.Date

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewResumptionMonitor creates an enabled monitor.
func NewResumptionMonitor(leaves *leave.Service, logger *zap.Logger, interval time.Duration) *ResumptionMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &ResumptionMonitor{
		Leaves:        leaves,
		CheckInterval: interval,
		Enabled:       true,
		logger:        logger,
		today:         core.Today,
	}
}

// Start begins the periodic check. The first check runs immediately.
func (m *ResumptionMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		m.logger.Info("resumption monitor disabled, not starting")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)

	go m.run()

	m.logger.Info("resumption monitor started", zap.Duration("interval", m.CheckInterval))
}

// Stop halts the monitor and waits for a running check to finish.
func (m *ResumptionMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.stop)
	m.wg.Wait()
	m.ticker = nil
	m.logger.Info("resumption monitor stopped")
}

func (m *ResumptionMonitor) run() {
	defer m.wg.Done()

	m.RunNow(context.Background())

	for {
		select {
		case <-m.ticker.C:
			m.RunNow(context.Background())
		case <-m.stop:
			return
		}
	}
}

// RunNow performs one check and returns the overdue requests it found.
func (m *ResumptionMonitor) RunNow(ctx context.Context) []core.LeaveRequest {
	asOf := m.today()

	overdue, err := m.Leaves.Overdue(ctx, asOf)
	if err != nil {
		m.logger.Error("failed to list overdue leave", zap.Error(err))
		return nil
	}

	for _, r := range overdue {
		m.logger.Warn("leave resumption overdue",
			zap.String("leave_id", string(r.ID)),
			zap.String("person_id", string(r.PersonID)),
			zap.Stringer("end_date", r.Period.End),
			zap.Int("days_overdue", core.DaysBetween(r.Period.End, asOf)))
	}
	if len(overdue) > 0 {
		m.logger.Info("resumption check completed",
			zap.Stringer("as_of", asOf),
			zap.Int("overdue", len(overdue)))
	}
	return overdue
}
