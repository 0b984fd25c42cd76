// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

// Scheduler defaults.
const (
	DefaultCriticalDelay    = 2 * time.Second
	DefaultRoutineDelay     = 10 * time.Second
	DefaultPeriodicInterval = 5 * time.Minute
)

// SyncSettings tunes the orchestrator.
type SyncSettings struct {
	CriticalDelay     time.Duration
	RoutineDelay      time.Duration
	PeriodicInterval  time.Duration
	SharedParticipant bool
	// Actor is recorded as the author of remote writes.
	Actor string
}

func (s *SyncSettings) applyDefaults() {
	if s.CriticalDelay <= 0 {
		s.CriticalDelay = DefaultCriticalDelay
	}
	if s.RoutineDelay <= 0 {
		s.RoutineDelay = DefaultRoutineDelay
	}
	if s.PeriodicInterval <= 0 {
		s.PeriodicInterval = DefaultPeriodicInterval
	}
	if s.Actor == "" {
		s.Actor = "budget-sync"
	}
}

// SyncDeps are the collaborators of the orchestrator. Backups, Validator and
// Events may be nil.
type SyncDeps struct {
	Local     store.LocalStore
	Transport CloudTransport
	Backups   BackupService
	Health    HealthMonitor
	Validator validators.Validator
	Events    EventBus
}

// workItem is one unit of work for the sync worker: a sync cycle when fn is
// nil, otherwise an exclusive operation.
type workItem struct {
	syncType models.SyncType
	fn       func(ctx context.Context) error
	reply    chan workResult
}

type workResult struct {
	sync models.SyncResult
	err  error
}

// syncOrchestrator runs every cycle and every exclusive operation on a single
// worker goroutine.
//
// slot is the single-flight token: whoever holds it owns the worker until
// the worker releases it at the end of the item. ForceSync only tries to take
// it, so a busy orchestrator rejects instead of queueing.
type syncOrchestrator struct {
	SyncDeps
	settings SyncSettings
	clock    clock.Clock
	logger   *logger.Logger

	requests  chan workItem
	scheduled chan models.Trigger
	slot      chan struct{}

	mu           sync.Mutex
	started      bool
	state        models.SyncState
	timer        clock.Timer
	timerPending bool
	cancel       context.CancelFunc
	done         chan struct{}
	wg           sync.WaitGroup
}

// NewSyncOrchestrator wires an orchestrator. It is idle until Start.
func NewSyncOrchestrator(deps SyncDeps, settings SyncSettings, clk clock.Clock, log *logger.Logger) SyncOrchestrator {
	return newSyncOrchestrator(deps, settings, clk, log)
}

func newSyncOrchestrator(deps SyncDeps, settings SyncSettings, clk clock.Clock, log *logger.Logger) *syncOrchestrator {
	if clk == nil {
		clk = clock.Real()
	}
	settings.applyDefaults()

	return &syncOrchestrator{
		SyncDeps:  deps,
		settings:  settings,
		clock:     clk,
		logger:    log,
		requests:  make(chan workItem),
		scheduled: make(chan models.Trigger, 1),
		slot:      make(chan struct{}, 1),
		state:     models.SyncStateIdle,
	}
}

// Start launches the worker, the periodic ticker and, when an event bus is
// configured, the mutation subscription.
func (o *syncOrchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return ErrAlreadyStarted
	}

	workerCtx, cancel := context.WithCancel(o.logger.WithContext(ctx))
	if o.Events != nil {
		if err := o.Events.SubscribeMutations(workerCtx, o.ScheduleSync); err != nil {
			cancel()
			return fmt.Errorf("start sync orchestrator: %w", err)
		}
	}

	o.cancel = cancel
	o.started = true
	o.done = make(chan struct{})
	ticker := o.clock.NewTicker(o.settings.PeriodicInterval)

	o.wg.Add(2)
	go o.work(workerCtx, o.done)
	go o.tick(workerCtx, ticker)

	o.logger.Info().Str("func", "syncOrchestrator.Start").Dur("periodic_interval", o.settings.PeriodicInterval).Msg("sync orchestrator started")
	return nil
}

// Stop cancels pending timers, waits for the worker to finish its current
// item and returns the orchestrator to idle.
func (o *syncOrchestrator) Stop() {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return
	}
	o.started = false
	o.cancel()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.timerPending = false
	o.mu.Unlock()

	o.wg.Wait()

	o.mu.Lock()
	o.state = models.SyncStateIdle
	o.mu.Unlock()
}

func (o *syncOrchestrator) State() models.SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ScheduleSync re-arms the debounce timer. Critical triggers use the short
// delay.
func (o *syncOrchestrator) ScheduleSync(trigger models.Trigger) {
	delay := o.settings.RoutineDelay
	if trigger.IsCritical() {
		delay = o.settings.CriticalDelay
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timerPending = true
	if o.state == models.SyncStateIdle {
		o.state = models.SyncStateScheduled
	}
	o.timer = o.clock.AfterFunc(delay, func() { o.fire(trigger) })

	o.logger.Debug().
		Str("func", "syncOrchestrator.ScheduleSync").
		Str("trigger", string(trigger.Kind)).
		Dur("delay", delay).
		Msg("sync scheduled")
}

// fire hands a scheduled run to the worker. At most one scheduled run is
// pending; later ones coalesce into it.
func (o *syncOrchestrator) fire(trigger models.Trigger) {
	o.mu.Lock()
	o.timerPending = false
	o.timer = nil
	started := o.started
	o.mu.Unlock()

	if !started {
		return
	}
	select {
	case o.scheduled <- trigger:
	default:
	}
}

func (o *syncOrchestrator) tick(ctx context.Context, ticker clock.Ticker) {
	defer o.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			o.ScheduleSync(models.Trigger{Kind: models.TriggerPeriodic, Reason: "periodic"})
		}
	}
}

// ForceSync runs a cycle now unless one is in flight.
func (o *syncOrchestrator) ForceSync(ctx context.Context) models.SyncResult {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return models.SyncResult{Success: false, Error: ErrNotStarted.Error(), Category: models.CategoryUnknown}
	}

	select {
	case o.slot <- struct{}{}:
	default:
		return models.SyncResult{Success: false, Reason: models.ReasonSyncInProgress}
	}

	res, err := o.submit(ctx, workItem{syncType: models.SyncTypeForced})
	if err != nil {
		return models.SyncResult{Success: false, Error: err.Error(), Category: CategorizeError(err)}
	}
	return res.sync
}

// RunExclusive waits for the worker to be free and runs fn on it. When the
// orchestrator is not started nothing else can be syncing, so fn runs
// directly.
func (o *syncOrchestrator) RunExclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return fn(ctx)
	}

	select {
	case o.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	res, err := o.submit(ctx, workItem{fn: fn})
	if err != nil {
		return err
	}
	return res.err
}

// submit hands item to the worker. The caller holds the slot; the worker
// releases it. When the item never reaches the worker the slot is released
// here. An accepted item is always answered.
func (o *syncOrchestrator) submit(ctx context.Context, item workItem) (workResult, error) {
	item.reply = make(chan workResult, 1)

	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	select {
	case o.requests <- item:
	case <-done:
		<-o.slot
		return workResult{}, ErrWorkerStopped
	case <-ctx.Done():
		<-o.slot
		return workResult{}, ctx.Err()
	}

	select {
	case res := <-item.reply:
		return res, nil
	case <-ctx.Done():
		return workResult{}, ctx.Err()
	}
}

// work is the single sync worker.
func (o *syncOrchestrator) work(ctx context.Context, done chan struct{}) {
	defer o.wg.Done()
	defer close(done)

	pendingScheduled := false
	for {
		if pendingScheduled {
			select {
			case o.slot <- struct{}{}:
				pendingScheduled = false
				o.runScheduled(ctx)
				continue
			default:
			}
		}

		select {
		case <-ctx.Done():
			return
		case item := <-o.requests:
			o.runItem(ctx, item)
		case <-o.scheduled:
			select {
			case o.slot <- struct{}{}:
				o.runScheduled(ctx)
			default:
				// a forced run or exclusive operation holds the slot and is
				// about to hand its item over
				pendingScheduled = true
			}
		}
	}
}

func (o *syncOrchestrator) runItem(ctx context.Context, item workItem) {
	var res workResult
	if item.fn != nil {
		o.setState(models.SyncStateSyncing)
		res.err = item.fn(ctx)
	} else {
		res.sync = o.runCycle(ctx, item.syncType)
	}
	o.release()
	item.reply <- res
}

func (o *syncOrchestrator) runScheduled(ctx context.Context) {
	o.runCycle(ctx, models.SyncTypeScheduled)
	o.release()
}

// release ends the current item: the state falls back to scheduled when a
// debounce timer is armed, idle otherwise, and the slot is freed.
func (o *syncOrchestrator) release() {
	o.mu.Lock()
	if o.timerPending {
		o.state = models.SyncStateScheduled
	} else {
		o.state = models.SyncStateIdle
	}
	o.mu.Unlock()
	<-o.slot
}

func (o *syncOrchestrator) setState(state models.SyncState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}
