package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/optwatch/optwatch/internal/anomaly"
)

// Handler consumes a raised anomaly. Handlers run in registration order; a
// panicking handler is isolated and logged without affecting the others.
type Handler func(anomaly.Anomaly)

// DispatcherConfig holds construction options for a Dispatcher.
type DispatcherConfig struct {
	// AlertsDir, when set, receives one JSON file per raised anomaly
	AlertsDir string
	// Handlers are invoked in order for every raised anomaly
	Handlers []Handler
	// NotifyEvery, when positive, throttles handler fan-out to at most one
	// anomaly per interval. Throttled anomalies are still logged and
	// persisted; only notification is skipped.
	NotifyEvery time.Duration
	// Logger receives the warning-level anomaly log and failure
	// diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Dispatcher persists a raised anomaly and fans it out to the registered
// handlers. All failure is surfaced through logs; Handle never returns an
// error and never panics.
type Dispatcher struct {
	mu       sync.Mutex
	handlers []Handler

	dir     string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg *DispatcherConfig) *Dispatcher {
	if cfg == nil {
		cfg = &DispatcherConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.NotifyEvery > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.NotifyEvery), 1)
	}

	return &Dispatcher{
		handlers: append([]Handler(nil), cfg.Handlers...),
		dir:      cfg.AlertsDir,
		limiter:  limiter,
		logger:   logger,
	}
}

// Register appends a handler after construction.
func (d *Dispatcher) Register(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Handle logs the anomaly, persists it if a directory is configured, and
// notifies the handlers in registration order.
func (d *Dispatcher) Handle(a anomaly.Anomaly) {
	d.logger.Warn("learning anomaly raised",
		zap.String("id", a.ID),
		zap.String("anomaly_type", string(a.Type)),
		zap.String("severity", string(a.Severity)),
		zap.String("description", a.Description),
		zap.Strings("affected_parameters", a.AffectedParameters))

	if d.dir != "" {
		if path, err := WriteAnomaly(d.dir, a); err != nil {
			d.logger.Error("failed to persist anomaly",
				zap.String("id", a.ID),
				zap.Error(err))
		} else {
			d.logger.Debug("anomaly persisted", zap.String("path", path))
		}
	}

	if d.limiter != nil && !d.limiter.Allow() {
		d.logger.Warn("anomaly notification throttled",
			zap.String("id", a.ID),
			zap.String("anomaly_type", string(a.Type)))
		return
	}

	d.mu.Lock()
	handlers := append([]Handler(nil), d.handlers...)
	d.mu.Unlock()

	for i, h := range handlers {
		d.notify(i, h, a)
	}
}

// notify runs one handler, converting a panic into a log entry so the
// remaining handlers still run.
func (d *Dispatcher) notify(index int, h Handler, a anomaly.Anomaly) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("alert handler panicked",
				zap.Int("handler", index),
				zap.String("id", a.ID),
				zap.Any("panic", r))
		}
	}()
	h(a)
}
