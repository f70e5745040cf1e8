// Package monitor owns the background anomaly-detection schedule. A single
// worker wakes every poll interval, runs a full detection pass once the
// check interval has elapsed, and dispatches whatever the deduplicator lets
// through. Start and Stop are idempotent; Stop is bounded.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/optwatch/optwatch/internal/alert"
	"github.com/optwatch/optwatch/internal/anomaly"
	"github.com/optwatch/optwatch/internal/dedup"
	"github.com/optwatch/optwatch/internal/metrics"
)

// Defaults for the monitor schedule.
const (
	// DefaultCheckInterval is the nominal period between detection passes.
	DefaultCheckInterval = 15 * time.Minute
	// DefaultPollInterval is how often the worker wakes to observe stop
	// signals and elapsed time. It bounds stop latency, not pass latency.
	DefaultPollInterval = time.Second
	// DefaultStopTimeout bounds how long Stop waits for the worker to exit.
	DefaultStopTimeout = 5 * time.Second
)

// Config holds the monitor schedule and detector thresholds.
type Config struct {
	// CheckInterval is the nominal period between detection passes.
	// Zero means DefaultCheckInterval; negative is a configuration error.
	CheckInterval time.Duration
	// PollInterval is the worker wake-up period. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
	// StopTimeout bounds the Stop join. Zero means DefaultStopTimeout.
	StopTimeout time.Duration
	// Detector holds the detector thresholds. Zero value means
	// anomaly.DefaultConfig().
	Detector anomaly.Config
}

// Deps holds dependencies for creating a Monitor.
type Deps struct {
	// Store is the metrics store the detectors read. Required.
	Store *metrics.Store
	// Dispatcher receives newly raised anomalies. Nil means a dispatcher
	// that only logs.
	Dispatcher *alert.Dispatcher
	// Dedup suppresses repeat anomalies. Nil means a default deduplicator.
	Dedup *dedup.Deduplicator
	// Config holds the schedule and thresholds. Nil means defaults.
	Config *Config
	// Logger receives lifecycle and pass diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Monitor runs the periodic detection schedule.
type Monitor struct {
	mu sync.Mutex

	store      *metrics.Store
	dispatcher *alert.Dispatcher
	dedup      *dedup.Deduplicator
	cfg        Config
	logger     *zap.Logger
	instanceID string

	cancel    context.CancelFunc
	done      chan struct{}
	running   bool
	lastCheck time.Time
}

// New creates a monitor. Invalid configuration fails fast; nothing else
// does.
func New(deps *Deps) (*Monitor, error) {
	if deps == nil || deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	cfg := Config{}
	if deps.Config != nil {
		cfg = *deps.Config
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.CheckInterval < 0 {
		return nil, fmt.Errorf("check_interval must be positive (got %v)", cfg.CheckInterval)
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("poll_interval must be positive (got %v)", cfg.PollInterval)
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.StopTimeout < 0 {
		return nil, fmt.Errorf("stop_timeout must be positive (got %v)", cfg.StopTimeout)
	}
	if (cfg.Detector == anomaly.Config{}) {
		cfg.Detector = anomaly.DefaultConfig()
	}
	if err := cfg.Detector.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	instanceID := uuid.NewString()
	logger = logger.With(zap.String("monitor_id", instanceID))

	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = alert.NewDispatcher(&alert.DispatcherConfig{Logger: logger})
	}
	deduper := deps.Dedup
	if deduper == nil {
		deduper = dedup.New(0, 0)
	}

	return &Monitor{
		store:      deps.Store,
		dispatcher: dispatcher,
		dedup:      deduper,
		cfg:        cfg,
		logger:     logger,
		instanceID: instanceID,
	}, nil
}

// InstanceID returns this monitor's unique id, carried in its log fields.
func (m *Monitor) InstanceID() string {
	return m.instanceID
}

// Running reports whether the background worker is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastCheck returns when the last detection pass completed (or when the
// monitor started, before any pass has run).
func (m *Monitor) LastCheck() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCheck
}

// Start spawns the background worker. Calling Start while already running
// logs a warning and is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.logger.Warn("monitor already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.lastCheck = time.Now()
	m.running = true

	go m.loop(ctx, m.done)

	m.logger.Info("monitor started",
		zap.Duration("check_interval", m.cfg.CheckInterval))
}

// Stop signals the worker and waits up to StopTimeout for it to exit.
// Calling Stop while not running logs a warning and is a no-op. The join is
// best-effort: on timeout Stop returns anyway, which is acceptable because
// each tick performs only bounded in-memory work.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Warn("monitor not running")
		return
	}
	m.cancel()
	m.running = false
	done := m.done
	m.mu.Unlock()

	select {
	case <-done:
		m.logger.Info("monitor stopped")
	case <-time.After(m.cfg.StopTimeout):
		m.logger.Warn("monitor worker did not exit before stop timeout",
			zap.Duration("timeout", m.cfg.StopTimeout))
	}
}

// CheckNow runs one detection pass synchronously, outside the schedule, and
// returns the newly raised (post-dedup) anomalies.
func (m *Monitor) CheckNow() []anomaly.Anomaly {
	return m.runPass(context.Background())
}

// loop is the background worker. It polls frequently so a stop signal is
// observed within about one poll interval even though the check interval is
// long.
func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			due := time.Since(m.lastCheck) >= m.cfg.CheckInterval
			m.mu.Unlock()
			if !due {
				continue
			}

			m.safePass(ctx)

			m.mu.Lock()
			m.lastCheck = time.Now()
			m.mu.Unlock()
		}
	}
}

// safePass runs one pass, converting a panic into a log entry so the loop
// survives.
func (m *Monitor) safePass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("detection pass panicked", zap.Any("panic", r))
		}
	}()
	m.runPass(ctx)
}

func (m *Monitor) runPass(ctx context.Context) []anomaly.Anomaly {
	start := time.Now()
	candidates := anomaly.DetectAll(ctx, m.store, m.cfg.Detector)
	fresh := m.dedup.Filter(candidates)
	for _, a := range fresh {
		m.dispatcher.Handle(a)
	}

	m.logger.Info("detection pass complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("raised", len(fresh)),
		zap.Duration("duration", time.Since(start)))
	return fresh
}
