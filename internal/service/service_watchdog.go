package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/models"
)

const (
	DefaultHealthCheckInterval = 30 * time.Second

	probeTimeout = 5 * time.Second
)

var verdicts = []models.HealthVerdict{models.VerdictHealthy, models.VerdictSlow, models.VerdictDegraded, models.VerdictUnhealthy}

// Watchdog periodically reads the health verdict and probes the remote. It
// never starts, stops or retries syncs.
type Watchdog struct {
	monitor  HealthMonitor
	prober   remote.Prober
	clock    clock.Clock
	interval time.Duration
	logger   *logger.Logger

	verdict  *prometheus.GaugeVec
	remoteUp prometheus.Gauge

	mu     sync.Mutex
	last   models.HealthVerdict
	lastUp *bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatchdog builds a watchdog. prober may be nil to skip connectivity
// probes; reg may be nil to keep the gauges private.
func NewWatchdog(monitor HealthMonitor, prober remote.Prober, clk clock.Clock, interval time.Duration, reg prometheus.Registerer, log *logger.Logger) *Watchdog {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = DefaultHealthCheckInterval
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Watchdog{
		monitor:  monitor,
		prober:   prober,
		clock:    clk,
		interval: interval,
		logger:   log,
		verdict: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sync_health_status",
			Help:      "1 for the current health verdict, 0 otherwise",
		}, []string{"status"}),
		remoteUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "remote_up",
			Help:      "1 when the last remote connectivity probe succeeded",
		}),
		last: models.VerdictHealthy,
	}
}

// Start launches the ticker loop. Calling Start on a running watchdog
// restarts it.
func (w *Watchdog) Start(ctx context.Context) error {
	w.Stop()

	w.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	ticker := w.clock.NewTicker(w.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				w.Check(loopCtx)
			}
		}
	}()
	return nil
}

// Stop ends the loop and waits for it. Safe to call when not running.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Check runs one observation: read the verdict, log a transition, probe the
// remote.
func (w *Watchdog) Check(ctx context.Context) models.HealthStatus {
	status := w.monitor.Status()

	for _, v := range verdicts {
		value := 0.0
		if v == status.Status {
			value = 1
		}
		w.verdict.WithLabelValues(string(v)).Set(value)
	}

	w.mu.Lock()
	previous := w.last
	w.last = status.Status
	w.mu.Unlock()

	if previous != status.Status {
		event := w.logger.Info()
		if status.Status != models.VerdictHealthy {
			event = w.logger.Warn()
		}
		event.Str("func", "Watchdog.Check").
			Str("from", string(previous)).
			Str("to", string(status.Status)).
			Strs("issues", status.Issues).
			Msg("sync health changed")
	}

	if w.prober != nil {
		w.probe(ctx)
	}
	return status
}

func (w *Watchdog) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := w.prober.Ping(ctx)
	up := err == nil
	if up {
		w.remoteUp.Set(1)
	} else {
		w.remoteUp.Set(0)
	}

	w.mu.Lock()
	changed := w.lastUp == nil || *w.lastUp != up
	w.lastUp = &up
	w.mu.Unlock()

	if changed && !up {
		w.logger.Warn().Err(err).Str("func", "Watchdog.probe").Str("category", string(CategorizeError(err))).Msg("remote unreachable")
	} else if changed {
		w.logger.Info().Str("func", "Watchdog.probe").Msg("remote reachable")
	}
}

// Verdict returns the last observed verdict.
func (w *Watchdog) Verdict() models.HealthVerdict {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
