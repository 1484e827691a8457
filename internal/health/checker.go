// Package health runs periodic probes against ledgerd's backing services and
// reports whether the daemon is ready to serve.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status values reported per probe.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Probe checks one dependency. A nil error means healthy.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Report is the state of one probe.
type Report struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Failures  int       `json:"consecutive_failures"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs probes on an interval. A probe is degraded once it has
// failed FailThreshold times in a row and healthy again on its next success.
type Checker struct {
	probes    []Probe
	mu        sync.Mutex
	reports   map[string]*Report
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a Checker. Every probe starts healthy.
func New(probes []Probe, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	reports := make(map[string]*Report, len(probes))
	for _, p := range probes {
		reports[p.Name] = &Report{Name: p.Name, Status: StatusHealthy}
	}
	return &Checker{probes: probes, reports: reports, cfg: cfg, logger: logger}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the check loop until ctx is cancelled.
func (h *Checker) Start(ctx context.Context) {
	h.CheckAll(ctx)
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll runs every probe concurrently and waits for them.
func (h *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range h.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
			err := p.Check(pctx)
			cancel()
			h.record(p.Name, err)
		}(p)
	}
	wg.Wait()
}

func (h *Checker) record(name string, err error) {
	if h.onMetrics != nil {
		h.onMetrics(err == nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.reports[name]
	r.CheckedAt = time.Now().UTC()

	if err == nil {
		if r.Status == StatusDegraded {
			h.logger.Info("health: recovered", zap.String("probe", name))
		}
		r.Status, r.Failures, r.LastError = StatusHealthy, 0, ""
		return
	}

	r.Failures++
	r.LastError = err.Error()
	if r.Failures == h.cfg.FailThreshold {
		r.Status = StatusDegraded
		h.logger.Warn("health: degraded",
			zap.String("probe", name),
			zap.Int("fail_count", r.Failures),
			zap.Error(err),
		)
	}
}

// Snapshot returns every probe's report sorted by name and whether all of
// them are healthy.
func (h *Checker) Snapshot() ([]Report, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Report, 0, len(h.reports))
	healthy := true
	for _, r := range h.reports {
		out = append(out, *r)
		if r.Status != StatusHealthy {
			healthy = false
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, healthy
}
