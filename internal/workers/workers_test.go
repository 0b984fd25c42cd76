// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// recordingWorker appends "start:<id>" and "stop:<id>" to a shared log.
type recordingWorker struct {
	id       string
	log      *[]string
	startErr error
}

func (r *recordingWorker) Start(ctx context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	*r.log = append(*r.log, "start:"+r.id)
	return nil
}

func (r *recordingWorker) Stop() {
	*r.log = append(*r.log, "stop:"+r.id)
}

func TestWorkers_StartInOrderStopInReverse(t *testing.T) {
	var log []string
	ws := NewWorkers(
		&recordingWorker{id: "sync", log: &log},
		&recordingWorker{id: "watchdog", log: &log},
		&recordingWorker{id: "debug", log: &log},
	)

	if err := ws.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	ws.Stop()

	expected := []string{"start:sync", "start:watchdog", "start:debug", "stop:debug", "stop:watchdog", "stop:sync"}
	if !slices.Equal(log, expected) {
		t.Errorf("expected %v, got %v", expected, log)
	}
}

func TestWorkers_StartFailureStopsStartedOnes(t *testing.T) {
	var log []string
	boom := errors.New("listen tcp: address in use")
	ws := NewWorkers(
		&recordingWorker{id: "sync", log: &log},
		&recordingWorker{id: "watchdog", log: &log},
		&recordingWorker{id: "debug", log: &log, startErr: boom},
	)

	err := ws.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	expected := []string{"start:sync", "start:watchdog", "stop:watchdog", "stop:sync"}
	if !slices.Equal(log, expected) {
		t.Errorf("expected %v, got %v", expected, log)
	}

	// nothing left to stop
	ws.Stop()
	if len(log) != len(expected) {
		t.Errorf("Stop after failed Start touched workers: %v", log)
	}
}

func TestWorkers_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	if err := ws.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws.Stop()
}

func TestWorkers_StopWithoutStart(t *testing.T) {
	var log []string
	ws := NewWorkers(&recordingWorker{id: "sync", log: &log})

	ws.Stop()
	if len(log) != 0 {
		t.Errorf("expected no calls, got %v", log)
	}
}
