// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/utils"
	"github.com/MKhiriev/envelope-sync/models"
)

// Health thresholds.
const (
	DefaultHistorySize = 50

	degradedErrorRate   = 0.05
	unhealthyFailureRun = 3
	slowAverage         = 10 * time.Second
	recentWindow        = 10
)

// errSuperseded finalizes an attempt that was still open when the next one
// started.
var errSuperseded = errors.New("superseded by a newer sync attempt")

// healthMonitor keeps a ring of the most recent finalized attempts. Attempts
// pushed out of the ring are folded into evicted so lifetime counters keep
// their value.
type healthMonitor struct {
	mu sync.Mutex

	clock   clock.Clock
	ids     *utils.UUIDGenerator
	metrics *healthMetrics
	logger  *logger.Logger

	size    int
	history []models.SyncAttempt
	current *models.SyncAttempt

	evicted struct {
		attempts, successes, failures int
		total                         time.Duration
	}
	consecutiveFailures int
	lastSuccess         *time.Time
	lastCategory        models.ErrorCategory
	sessionStart        time.Time
}

// NewHealthMonitor builds a monitor keeping historySize attempts (default 50)
// and registering its metrics on reg (nil keeps them private).
func NewHealthMonitor(clk clock.Clock, historySize int, reg prometheus.Registerer, log *logger.Logger) HealthMonitor {
	return newHealthMonitor(clk, historySize, reg, log)
}

func newHealthMonitor(clk clock.Clock, historySize int, reg prometheus.Registerer, log *logger.Logger) *healthMonitor {
	if clk == nil {
		clk = clock.Real()
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}

	m := &healthMonitor{
		clock:        clk,
		ids:          utils.NewUUIDGenerator(),
		metrics:      newHealthMetrics(reg),
		logger:       log,
		size:         historySize,
		history:      make([]models.SyncAttempt, 0, historySize),
		sessionStart: clk.Now(),
	}
	return m
}

// RecordStart opens a new attempt. An attempt still open is finalized as a
// failure first.
func (m *healthMonitor) RecordStart(syncType models.SyncType) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.logger.Warn().Str("func", "healthMonitor.RecordStart").Str("attempt_id", m.current.ID).Msg("previous attempt still open")
		m.finalize(false, errSuperseded, nil)
	}

	m.current = &models.SyncAttempt{
		ID:        m.ids.Generate(),
		Type:      syncType,
		StartTime: m.clock.Now(),
		Stage:     models.StageStarted,
	}
	return m.current.ID
}

func (m *healthMonitor) UpdateProgress(attemptID string, stage models.SyncStage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != attemptID {
		return
	}
	m.current.Stage = stage
}

func (m *healthMonitor) RecordSuccess(attemptID string, meta map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != attemptID {
		return
	}
	m.finalize(true, nil, meta)
}

func (m *healthMonitor) RecordFailure(attemptID string, err error, meta map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != attemptID {
		return
	}
	if err == nil {
		err = errors.New("sync failed without error detail")
	}
	m.finalize(false, err, meta)
}

// ReportError counts a failure outside the attempt lifecycle, such as a
// remote document that could not be decrypted.
func (m *healthMonitor) ReportError(err error) {
	if err == nil {
		return
	}
	category := CategorizeError(err)

	m.mu.Lock()
	m.lastCategory = category
	m.mu.Unlock()

	m.metrics.errors.WithLabelValues(string(category)).Inc()
}

// finalize closes m.current. Callers hold m.mu.
func (m *healthMonitor) finalize(success bool, err error, meta map[string]any) {
	attempt := *m.current
	m.current = nil

	end := m.clock.Now()
	duration := end.Sub(attempt.StartTime)
	attempt.EndTime = &end
	attempt.Duration = &duration
	attempt.Success = &success
	if len(meta) > 0 {
		attempt.Metadata = maps.Clone(meta)
	}

	result := "success"
	if success {
		attempt.Stage = models.StageCompleted
		m.consecutiveFailures = 0
		m.lastSuccess = &end
	} else {
		result = "failure"
		attempt.Stage = models.StageFailed
		attempt.Error = err.Error()
		attempt.Category = CategorizeError(err)
		m.consecutiveFailures++
		m.lastCategory = attempt.Category
		m.metrics.errors.WithLabelValues(string(attempt.Category)).Inc()
	}

	m.metrics.attempts.WithLabelValues(string(attempt.Type), result).Inc()
	m.metrics.duration.Observe(duration.Seconds())
	m.metrics.consecutiveFailures.Set(float64(m.consecutiveFailures))

	if len(m.history) == m.size {
		m.evict(m.history[0])
		m.history = append(m.history[:0], m.history[1:]...)
	}
	m.history = append(m.history, attempt)
}

func (m *healthMonitor) evict(a models.SyncAttempt) {
	m.evicted.attempts++
	if a.Success != nil && *a.Success {
		m.evicted.successes++
	} else {
		m.evicted.failures++
	}
	if a.Duration != nil {
		m.evicted.total += *a.Duration
	}
}

// Metrics returns lifetime counters over the ring and everything evicted
// from it.
func (m *healthMonitor) Metrics() models.HealthMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metricsLocked()
}

func (m *healthMonitor) metricsLocked() models.HealthMetrics {
	out := models.HealthMetrics{
		TotalAttempts:       m.evicted.attempts,
		SuccessfulSyncs:     m.evicted.successes,
		FailedSyncs:         m.evicted.failures,
		ConsecutiveFailures: m.consecutiveFailures,
		SessionStartTime:    m.sessionStart,
	}
	total := m.evicted.total

	for _, a := range m.history {
		out.TotalAttempts++
		if *a.Success {
			out.SuccessfulSyncs++
		} else {
			out.FailedSyncs++
		}
		total += *a.Duration
	}

	if out.TotalAttempts > 0 {
		out.ErrorRate = float64(out.FailedSyncs) / float64(out.TotalAttempts)
		out.AverageSyncTimeMs = float64(total.Milliseconds()) / float64(out.TotalAttempts)
	}
	if m.lastSuccess != nil {
		last := *m.lastSuccess
		out.LastSyncTime = &last
	}
	return out
}

// Status evaluates the verdict. A high error rate degrades, a run of
// failures makes it unhealthy, and a slow recent average only shows when
// nothing worse applies.
func (m *healthMonitor) Status() models.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.metricsLocked()
	status := models.HealthStatus{
		Status:        models.VerdictHealthy,
		Issues:        []string{},
		Metrics:       metrics,
		RecentAvgMs:   m.recentAverageLocked(),
		CheckedAt:     m.clock.Now(),
		LastErrorKind: m.lastCategory,
	}

	if metrics.ErrorRate > degradedErrorRate {
		status.Status = models.VerdictDegraded
		status.Issues = append(status.Issues, fmt.Sprintf("High error rate: %.1f%%", metrics.ErrorRate*100))
	}
	if metrics.ConsecutiveFailures >= unhealthyFailureRun {
		status.Status = models.VerdictUnhealthy
		status.Issues = append(status.Issues, fmt.Sprintf("%d consecutive sync failures", metrics.ConsecutiveFailures))
	}
	if status.RecentAvgMs > float64(slowAverage.Milliseconds()) {
		if status.Status == models.VerdictHealthy {
			status.Status = models.VerdictSlow
		}
		status.Issues = append(status.Issues, fmt.Sprintf("Slow sync performance: %.0fms average", status.RecentAvgMs))
	}

	if m.current != nil {
		current := *m.current
		status.CurrentSync = &current
	}
	return status
}

func (m *healthMonitor) recentAverageLocked() float64 {
	recent := m.history[max(0, len(m.history)-recentWindow):]
	if len(recent) == 0 {
		return 0
	}

	var total time.Duration
	for _, a := range recent {
		total += *a.Duration
	}
	return float64(total.Milliseconds()) / float64(len(recent))
}

// History returns the finalized attempts in the ring, oldest first.
func (m *healthMonitor) History() []models.SyncAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Current returns the open attempt, or nil.
func (m *healthMonitor) Current() *models.SyncAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	current := *m.current
	return &current
}
