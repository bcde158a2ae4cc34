/*
monitor.go - Periodic workload monitor

PURPOSE:

	Periodically computes the current month's workload of every user who
	declared availability for the current year, logs users at WARNING or
	OVERLOAD, and publishes the count per status as a gauge.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks once immediately on start
  - A failure for one user is logged and does not stop the scan
  - Read-only: the monitor never writes to the store

CONFIGURATION:
  - Interval: How often to check (default: 1 hour)
  - Enabled: Whether the monitor is active (default: true)

USAGE:

	monitor := NewWorkloadMonitor(store, calculator, metrics, log)
	monitor.Start()
	// ... later
	monitor.Stop()
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erasmus-writer/resource-engine/generic"
	"github.com/erasmus-writer/resource-engine/metrics"
	"github.com/erasmus-writer/resource-engine/workload"
)

// monitorTimeout bounds a single scan.
const monitorTimeout = 2 * time.Minute

// MonitorSummary is the outcome of one scan.
type MonitorSummary struct {
	Period  generic.PeriodKey
	Counts  map[workload.Status]int
	Flagged []*workload.Workload // WARNING and OVERLOAD
	Failed  int
}

// WorkloadMonitor scans users' workloads on a ticker.
type WorkloadMonitor struct {
	Store     generic.TeamStore
	Workloads *workload.Calculator
	Metrics   *metrics.Metrics
	Interval  time.Duration
	Enabled   bool

	// Now returns the instant whose month is checked.
	Now func() time.Time

	log    *zap.SugaredLogger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorkloadMonitor creates a monitor with an hourly interval.
func NewWorkloadMonitor(store generic.TeamStore, workloads *workload.Calculator, m *metrics.Metrics, log *zap.SugaredLogger) *WorkloadMonitor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &WorkloadMonitor{
		Store:     store,
		Workloads: workloads,
		Metrics:   m,
		Interval:  time.Hour,
		Enabled:   true,
		Now:       time.Now,
		log:       log,
	}
}

// Start begins the monitor.
func (wm *WorkloadMonitor) Start() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if !wm.Enabled {
		wm.log.Info("workload monitor disabled, not starting")
		return
	}
	if wm.ticker != nil {
		return
	}

	wm.ticker = time.NewTicker(wm.Interval)
	wm.stop = make(chan struct{})
	wm.wg.Add(1)

	go wm.run(wm.ticker, wm.stop)

	wm.log.Infow("workload monitor started", "interval", wm.Interval.String())
}

// Stop stops the monitor and waits for an in-flight scan.
func (wm *WorkloadMonitor) Stop() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if wm.ticker == nil {
		return
	}
	wm.ticker.Stop()
	close(wm.stop)
	wm.wg.Wait()
	wm.ticker = nil
	wm.log.Info("workload monitor stopped")
}

func (wm *WorkloadMonitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer wm.wg.Done()

	wm.scan()
	for {
		select {
		case <-ticker.C:
			wm.scan()
		case <-stop:
			return
		}
	}
}

func (wm *WorkloadMonitor) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), monitorTimeout)
	defer cancel()

	if _, err := wm.RunNow(ctx); err != nil {
		wm.log.Errorw("workload monitor run failed", "error", err)
	}
}

// RunNow checks the current month once.
func (wm *WorkloadMonitor) RunNow(ctx context.Context) (*MonitorSummary, error) {
	now := wm.Now()
	key, err := generic.NewPeriodKey(now.Year(), int(now.Month()))
	if err != nil {
		return nil, err
	}

	users, err := wm.Store.ListAvailabilityUsers(ctx, key.Year)
	if err != nil {
		wm.observeRun("error")
		return nil, err
	}

	summary := &MonitorSummary{Period: key, Counts: make(map[workload.Status]int)}
	for _, userID := range users {
		w, err := wm.Workloads.Calculate(ctx, userID, int(key.Month), key.Year)
		if err != nil {
			wm.log.Errorw("failed to calculate workload",
				"user_id", userID,
				"period", key.String(),
				"error", err,
			)
			summary.Failed++
			continue
		}
		summary.Counts[w.Status]++

		if w.Status == workload.StatusWarning || w.Status == workload.StatusOverload {
			summary.Flagged = append(summary.Flagged, w)
			wm.log.Warnw("user workload above threshold",
				"user_id", userID,
				"period", key.String(),
				"status", w.Status,
				"load", w.Load.String(),
				"capacity", w.Capacity.String(),
				"percentage", w.Percentage.StringFixed(1),
			)
		}
	}

	if wm.Metrics != nil {
		counts := make(map[string]int, len(summary.Counts))
		for status, n := range summary.Counts {
			counts[string(status)] = n
		}
		wm.Metrics.SetMonitoredUsers(counts)
	}
	wm.observeRun("ok")

	wm.log.Infow("workload monitor run completed",
		"period", key.String(),
		"users", len(users),
		"flagged", len(summary.Flagged),
		"failed", summary.Failed,
	)
	return summary, nil
}

func (wm *WorkloadMonitor) observeRun(outcome string) {
	if wm.Metrics != nil {
		wm.Metrics.MonitorRuns.WithLabelValues(outcome).Inc()
	}
}
