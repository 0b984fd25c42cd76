package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/service"
	"github.com/MKhiriev/envelope-sync/models"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type stubOrchestrator struct {
	service.SyncOrchestrator
	result models.SyncResult
	calls  int
}

func (s *stubOrchestrator) ForceSync(ctx context.Context) models.SyncResult {
	s.calls++
	return s.result
}

type stubDiagnostics struct {
	service.Diagnostics
	reset  models.ResetResult
	resets int
	clears int
}

func (s *stubDiagnostics) QuickStatus(ctx context.Context) models.QuickStatus {
	return models.QuickStatus{
		State:       models.SyncStateIdle,
		BudgetID:    "household",
		Initialized: true,
		Health:      models.HealthStatus{Status: models.VerdictHealthy, Issues: []string{}},
		LocalCounts: models.Counts{models.Envelopes: 3, models.Transactions: 7},
	}
}

func (s *stubDiagnostics) ForceReset(ctx context.Context) models.ResetResult {
	s.resets++
	return s.reset
}

func (s *stubDiagnostics) ClearRemote(ctx context.Context) models.ResetResult {
	s.clears++
	return s.reset
}

type stubBackups struct {
	service.BackupService
	infos []models.BackupInfo
	err   error
}

func (s *stubBackups) List(ctx context.Context) ([]models.BackupInfo, error) { return s.infos, s.err }

type dashboardFixture struct {
	model        dashboardModel
	orchestrator *stubOrchestrator
	diagnostics  *stubDiagnostics
	backups      *stubBackups
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()

	f := &dashboardFixture{
		orchestrator: &stubOrchestrator{},
		diagnostics:  &stubDiagnostics{},
		backups: &stubBackups{infos: []models.BackupInfo{
			{ID: "20260601T095000-a", Reason: "pre-merge", CreatedAt: testNow.Add(-10 * time.Minute), TotalRecords: 10},
		}},
	}
	services := &service.ClientServices{
		Health:       service.NewHealthMonitor(clock.NewFake(testNow), 0, prometheus.NewRegistry(), logger.Nop()),
		Orchestrator: f.orchestrator,
		Diagnostics:  f.diagnostics,
		Backups:      f.backups,
	}
	f.model = newDashboardModel(context.Background(), services, models.NewAppBuildInfo("1.4.0", "2026-06-01", "abc123"), time.Second)
	return f
}

func (f *dashboardFixture) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	f.model = next.(dashboardModel)
	return cmd
}

func (f *dashboardFixture) load(t *testing.T) {
	t.Helper()
	f.update(t, f.model.cmdLoad()())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDashboard_LoadsSnapshot(t *testing.T) {
	f := newDashboardFixture(t)
	assert.Contains(t, f.model.View(), "Loading...")

	f.load(t)

	view := f.model.View()
	assert.Contains(t, view, "household")
	assert.Contains(t, view, "healthy")
	assert.Contains(t, view, "total")
}

func TestDashboard_LoadErrorShowsOverlay(t *testing.T) {
	f := newDashboardFixture(t)
	f.backups.err = errors.New("badger: closed")

	f.load(t)
	require.NotNil(t, f.model.errOverlay)
	assert.Contains(t, f.model.View(), "list backups")

	f.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, f.model.errOverlay)
}

func TestDashboard_Tabs(t *testing.T) {
	f := newDashboardFixture(t)
	f.load(t)

	f.update(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabHistory, f.model.tab)
	assert.Contains(t, f.model.View(), "No sync attempts yet")

	f.update(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabBackups, f.model.tab)
	assert.Contains(t, f.model.View(), "pre-merge")

	f.update(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, tabHistory, f.model.tab)
}

func TestDashboard_ForceSync(t *testing.T) {
	f := newDashboardFixture(t)
	f.load(t)
	f.orchestrator.result = models.SyncResult{
		Success:   true,
		Direction: models.DirectionToRemote,
		Counts:    models.Counts{models.Envelopes: 3},
	}

	cmd := f.update(t, runes("s"))
	require.NotNil(t, cmd)
	assert.True(t, f.model.sync.running)

	// a second press while running is ignored
	assert.Nil(t, f.update(t, runes("s")))

	f.update(t, f.model.cmdForceSync()())
	assert.False(t, f.model.sync.running)
	assert.Equal(t, 1, f.orchestrator.calls)
	assert.Contains(t, f.model.notice, "toRemote")

	f.update(t, clearStatusMsg{})
	assert.Empty(t, f.model.notice)
}

func TestDashboard_ForceSyncFailure(t *testing.T) {
	f := newDashboardFixture(t)
	f.load(t)

	f.update(t, syncDoneMsg{result: models.SyncResult{
		Error:    "read remote manifest: dial tcp 10.0.0.1:443: connection refused",
		Category: models.CategoryNetwork,
	}})

	require.NotNil(t, f.model.errOverlay)
	assert.Contains(t, f.model.errOverlay.message, "[network]")
	assert.Contains(t, f.model.errOverlay.message, "document server is unavailable")
}

func TestDashboard_ResetNeedsConfirmation(t *testing.T) {
	f := newDashboardFixture(t)
	f.load(t)

	f.update(t, runes("r"))
	require.NotNil(t, f.model.confirm)
	assert.Contains(t, f.model.View(), "Reset remote?")

	// declining runs nothing
	f.update(t, runes("n"))
	assert.Nil(t, f.model.confirm)
	assert.Equal(t, 0, f.diagnostics.resets)

	f.update(t, runes("r"))
	cmd := f.update(t, runes("y"))
	require.NotNil(t, cmd)
	assert.True(t, f.model.sync.running)

	f.diagnostics.reset = models.ResetResult{Success: true}
	f.update(t, f.model.cmdRemoteAction(actionReset)())
	assert.Equal(t, 1, f.diagnostics.resets)
	assert.Equal(t, "Reset remote completed", f.model.notice)
}

func TestDashboard_ClearRemoteSafetyAbort(t *testing.T) {
	f := newDashboardFixture(t)
	f.load(t)
	f.diagnostics.reset = models.ResetResult{SafetyAbort: true}

	f.update(t, runes("x"))
	require.NotNil(t, f.model.confirm)
	f.update(t, runes("y"))
	f.update(t, f.model.cmdRemoteAction(actionClearRemote)())

	assert.Equal(t, 1, f.diagnostics.clears)
	require.NotNil(t, f.model.errOverlay)
	assert.Contains(t, f.model.errOverlay.message, "local store is empty")
}

func TestDashboard_CopyStatus(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	f := newDashboardFixture(t)
	f.load(t)

	cmd := f.update(t, runes("c"))
	require.NotNil(t, cmd)
	f.update(t, cmd())

	assert.Contains(t, copied, `"budgetId": "household"`)
	assert.Equal(t, "Status copied to clipboard", f.model.notice)
}

func TestDashboard_BuildInfo(t *testing.T) {
	f := newDashboardFixture(t)

	f.update(t, runes("v"))
	assert.Contains(t, f.model.View(), "1.4.0")

	f.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, f.model.showBuildInfo)
}

func TestDashboard_Quit(t *testing.T) {
	f := newDashboardFixture(t)

	cmd := f.update(t, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderHistory_NewestFirst(t *testing.T) {
	ok, failed := true, false
	d := 120 * time.Millisecond
	history := []models.SyncAttempt{
		{ID: "a1", Type: models.SyncTypeScheduled, StartTime: testNow, Success: &ok, Duration: &d},
		{ID: "a2", Type: models.SyncTypeForced, StartTime: testNow.Add(time.Minute), Success: &failed, Error: "validation: bad record"},
	}

	out := renderHistory(history)
	require.Contains(t, out, "failed")
	assert.Less(t, strings.Index(out, "forced"), strings.Index(out, "scheduled"))
	assert.Contains(t, out, "120ms")
}
