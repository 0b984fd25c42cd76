package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/mock"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

type diagnosticsFixture struct {
	d         Diagnostics
	local     store.LocalStore
	transport *stubTransport
	backups   *stubBackups
	health    *healthMonitor
}

func newDiagnosticsFixture(t *testing.T, local store.LocalStore) *diagnosticsFixture {
	t.Helper()
	clk := clock.NewFake(testNow)
	if local == nil {
		local, _ = newTestStores(t, clk)
	}

	f := &diagnosticsFixture{
		local:     local,
		transport: newStubTransport(),
		backups:   &stubBackups{},
		health:    newHealthMonitor(clk, 0, nil, logger.Nop()),
	}
	validator := validators.NewCollectionValidator(clk)
	orchestrator := NewSyncOrchestrator(SyncDeps{
		Local:     local,
		Transport: f.transport,
		Health:    f.health,
	}, SyncSettings{}, clk, logger.Nop())

	f.d = NewDiagnostics(DiagnosticsDeps{
		Local:        local,
		Transport:    f.transport,
		Backups:      f.backups,
		Health:       f.health,
		Orchestrator: orchestrator,
		Guard:        NewCorruptionGuard(local, f.transport, f.backups, validator, clk, "laptop", logger.Nop()),
		Validator:    validator,
	}, false, clk, logger.Nop())
	return f
}

func TestDiagnostics_RunValidationClean(t *testing.T) {
	f := newDiagnosticsFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.local.ReplaceAll(ctx, budgetData()))
	f.transport.set(func(s *stubTransport) { s.remote = budgetData() })

	report, err := f.d.RunValidation(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid, "%v", report.Issues)
	assert.Empty(t, report.Issues)
	assert.True(t, report.RemoteFound)
	assert.Equal(t, budgetData().Counts(), report.LocalCounts)
	assert.Equal(t, budgetData().Counts(), report.RemoteCounts)
	assert.Equal(t, models.DirectionBidirectional, report.Direction)
	assert.True(t, testNow.Equal(report.CheckedAt))
}

func TestDiagnostics_RunValidationCollectsIssues(t *testing.T) {
	f := newDiagnosticsFixture(t, nil)
	ctx := context.Background()

	data := budgetData()
	data.Transactions = append(data.Transactions, models.Transaction{ID: "tx-2", EnvelopeID: "env-9"})
	require.NoError(t, f.local.ReplaceAll(ctx, data))
	f.transport.set(func(s *stubTransport) { s.loadErr = errors.New("network request failed") })

	report, err := f.d.RunValidation(ctx)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.False(t, report.RemoteFound)
	assert.Equal(t, models.DirectionNone, report.Direction)

	components := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		components = append(components, issue.Component)
	}
	assert.ElementsMatch(t, []string{componentLocal, componentRemote}, components)
	assert.Contains(t, report.Issues[0].Message, "env-9")
}

func TestDiagnostics_RunValidationReportsCacheDrift(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockLocalStore(ctrl)
	f := newDiagnosticsFixture(t, local)

	data := budgetData()
	local.EXPECT().ReadAll(gomock.Any()).Return(data, nil)
	local.EXPECT().CachedCounts(gomock.Any()).Return(models.Counts{models.Envelopes: 5}, nil)

	report, err := f.d.RunValidation(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, componentCache, report.Issues[0].Component)
	assert.Equal(t, models.DirectionToRemote, report.Direction)
}

func TestDiagnostics_RunValidationLocalReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockLocalStore(ctrl)
	f := newDiagnosticsFixture(t, local)

	local.EXPECT().ReadAll(gomock.Any()).Return(nil, errors.New("storage: no such table"))

	_, err := f.d.RunValidation(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read local data")
}

func TestDiagnostics_QuickStatus(t *testing.T) {
	f := newDiagnosticsFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.local.ReplaceAll(ctx, budgetData()))

	status := f.d.QuickStatus(ctx)
	assert.Equal(t, models.SyncStateIdle, status.State)
	assert.Equal(t, "household", status.BudgetID)
	assert.True(t, status.Initialized)
	assert.Equal(t, 3, status.LocalCounts.Total())
	assert.Equal(t, models.VerdictHealthy, status.Health.Status)
	assert.Nil(t, status.LastBackupAt)

	_, err := f.backups.CreateSnapshot(ctx, "manual")
	require.NoError(t, err)
	status = f.d.QuickStatus(ctx)
	require.NotNil(t, status.LastBackupAt)
	assert.True(t, testNow.Equal(*status.LastBackupAt))

	loads, _, _ := f.transport.calls()
	assert.Zero(t, loads, "quick status never reads the remote")
}

func TestDiagnostics_ForceResetRecordsAttempt(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		f := newDiagnosticsFixture(t, nil)

		res := f.d.ForceReset(context.Background())
		assert.True(t, res.SafetyAbort)

		history := f.health.History()
		require.Len(t, history, 1)
		assert.Equal(t, models.SyncTypeReset, history[0].Type)
		require.NotNil(t, history[0].Success)
		assert.False(t, *history[0].Success)
	})

	t.Run("populated store", func(t *testing.T) {
		f := newDiagnosticsFixture(t, nil)
		require.NoError(t, f.local.ReplaceAll(context.Background(), budgetData()))

		res := f.d.ForceReset(context.Background())
		require.True(t, res.Success, res.Error)

		history := f.health.History()
		require.Len(t, history, 1)
		require.NotNil(t, history[0].Success)
		assert.True(t, *history[0].Success)
		assert.Equal(t, budgetData().Counts(), f.transport.stored().Counts())
	})
}

func TestDiagnostics_ClearRemote(t *testing.T) {
	f := newDiagnosticsFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.local.ReplaceAll(ctx, budgetData()))
	f.transport.set(func(s *stubTransport) { s.remote = budgetData() })

	res := f.d.ClearRemote(ctx)
	require.True(t, res.Success, res.Error)
	assert.Nil(t, f.transport.stored())
}
