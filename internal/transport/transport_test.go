package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/crypto"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/mock"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/models"
)

const testBudget = "household"

var testNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) ReportError(err error) { r.errs = append(r.errs, err) }

func testKey(t *testing.T) crypto.StaticKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func newTestTransport(t *testing.T, store remote.DocumentStore, chunkSize int) (*ChunkedTransport, *recordingReporter) {
	t.Helper()

	reporter := &recordingReporter{}
	tr := NewChunkedTransport(store, crypto.NewAESGCM(), reporter, clock.NewFake(testNow), chunkSize, logger.Nop())
	require.NoError(t, tr.Initialize(testBudget, testKey(t)))
	return tr, reporter
}

func sampleData(envelopes int) *models.DataCollection {
	data := &models.DataCollection{
		Transactions: []models.Transaction{{ID: "tx-1", Amount: decimal.RequireFromString("-5.25")}},
		Metadata: models.Metadata{
			UnassignedCash: decimal.RequireFromString("100"),
			LastModified:   testNow.Add(-time.Minute),
		},
	}
	for i := 0; i < envelopes; i++ {
		data.Envelopes = append(data.Envelopes, models.Envelope{
			ID:   fmt.Sprintf("env-%04d", i),
			Name: strings.Repeat("n", 40),
		})
	}
	return data
}

// collectionChunks lists the stored chunk documents of one collection across
// all generations.
func collectionChunks(t *testing.T, store remote.DocumentStore, c models.Collection) []string {
	t.Helper()

	paths, err := store.List(context.Background(), testBudget, "chunks/")
	require.NoError(t, err)

	var out []string
	for _, p := range paths {
		if strings.Contains(p, "/"+string(c)+"/") {
			out = append(out, p)
		}
	}
	return out
}

func committedGeneration(t *testing.T, tr *ChunkedTransport) string {
	t.Helper()

	manifest, err := tr.Manifest(context.Background())
	require.NoError(t, err)
	require.True(t, manifest.Committed())
	return manifest.Generation
}

// failingStore fails Put for paths starting with failPrefix while armed.
type failingStore struct {
	*remote.MemoryStore
	failPrefix string
	armed      bool
}

func (s *failingStore) Put(ctx context.Context, budgetID, path string, body []byte) error {
	if s.armed && strings.HasPrefix(path, s.failPrefix) {
		return errors.New("network request failed: connection reset")
	}
	return s.MemoryStore.Put(ctx, budgetID, path, body)
}

// ── Initialize ──────────────────────────────────────────────────────────────

func TestInitialize_FailsFast(t *testing.T) {
	tr := NewChunkedTransport(remote.NewMemoryStore(), crypto.NewAESGCM(), nil, nil, 0, logger.Nop())

	assert.ErrorIs(t, tr.Initialize("", testKey(t)), ErrMissingBudgetID)
	assert.ErrorIs(t, tr.Initialize(testBudget, nil), ErrMissingKeyProvider)

	ctrl := gomock.NewController(t)
	pending := mock.NewMockKeyProvider(ctrl)
	pending.EXPECT().Key().Return(nil, crypto.ErrKeyNotReady)

	err := tr.Initialize(testBudget, pending)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, err, crypto.ErrKeyNotReady)
	assert.Empty(t, tr.BudgetID())
}

func TestOperationsBeforeInitialize(t *testing.T) {
	tr := NewChunkedTransport(remote.NewMemoryStore(), crypto.NewAESGCM(), nil, nil, 0, logger.Nop())
	ctx := context.Background()

	assert.False(t, tr.SaveToCloud(ctx, sampleData(1), "test"))
	_, err := tr.LoadFromCloud(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, tr.ClearCloud(ctx), ErrNotInitialized)
	_, _, err = tr.RemoteCounts(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

// ── Save / Load ─────────────────────────────────────────────────────────────

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := remote.NewMemoryStore()
	tr, reporter := newTestTransport(t, store, 0)
	ctx := context.Background()

	in := sampleData(3)
	require.True(t, tr.SaveToCloud(ctx, in, "laptop"))

	out, err := tr.LoadFromCloud(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.Counts(), out.Counts())
	assert.True(t, in.Metadata.LastModified.Equal(out.Metadata.LastModified))
	assert.True(t, in.Metadata.UnassignedCash.Equal(out.Metadata.UnassignedCash))

	inFP, _ := in.Fingerprint()
	outFP, _ := out.Fingerprint()
	assert.Equal(t, inFP, outFP)
	assert.Empty(t, reporter.errs)

	manifest, err := tr.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "laptop", manifest.UpdatedBy)
	assert.NotEmpty(t, manifest.Generation)
	assert.Nil(t, manifest.Pending)
	assert.Equal(t, 1, manifest.Chunks[models.Envelopes])
	assert.Equal(t, 0, manifest.Chunks[models.Bills])
	assert.True(t, testNow.Equal(manifest.SavedAt))
}

func TestSave_StoresOnlyOpaqueBlobs(t *testing.T) {
	store := remote.NewMemoryStore()
	tr, _ := newTestTransport(t, store, 0)
	ctx := context.Background()

	require.NoError(t, tr.Save(ctx, sampleData(2), "laptop"))
	gen := committedGeneration(t, tr)

	for _, p := range []string{"manifest", chunkPath(gen, models.Envelopes, 0), chunkPath(gen, models.Transactions, 0)} {
		blob, err := store.Get(ctx, testBudget, p)
		require.NoError(t, err, p)
		assert.NotContains(t, string(blob), "env-0000")
		assert.NotContains(t, string(blob), "unassignedCash")
	}
}

func TestLoad_AbsentManifest(t *testing.T) {
	tr, _ := newTestTransport(t, remote.NewMemoryStore(), 0)

	data, err := tr.LoadFromCloud(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, data)

	_, found, err := tr.RemoteCounts(context.Background())
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSave_SplitsIntoChunksWithinLimit(t *testing.T) {
	store := remote.NewMemoryStore()
	const limit = 2048
	tr, _ := newTestTransport(t, store, limit)
	ctx := context.Background()

	in := sampleData(200)
	require.NoError(t, tr.Save(ctx, in, "laptop"))

	paths := collectionChunks(t, store, models.Envelopes)
	assert.Greater(t, len(paths), 1)
	for _, p := range paths {
		blob, err := store.Get(ctx, testBudget, p)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(blob), limit, p)
	}

	out, err := tr.LoadFromCloud(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.RecordIDs(models.Envelopes), out.RecordIDs(models.Envelopes))
}

func TestSave_DeletesStaleChunks(t *testing.T) {
	store := remote.NewMemoryStore()
	tr, _ := newTestTransport(t, store, 2048)
	ctx := context.Background()

	require.NoError(t, tr.Save(ctx, sampleData(200), "laptop"))
	require.Greater(t, len(collectionChunks(t, store, models.Envelopes)), 1)

	require.NoError(t, tr.Save(ctx, sampleData(1), "laptop"))
	gen := committedGeneration(t, tr)
	assert.Equal(t, []string{chunkPath(gen, models.Envelopes, 0)}, collectionChunks(t, store, models.Envelopes))

	all, err := tr.ChunkPaths(ctx)
	require.NoError(t, err)
	for _, p := range all {
		assert.True(t, strings.HasPrefix(p, generationPrefix(gen)), p)
	}

	require.NoError(t, tr.Save(ctx, sampleData(0), "laptop"))
	assert.Empty(t, collectionChunks(t, store, models.Envelopes))
}

func TestSave_RecordTooLarge(t *testing.T) {
	tr, _ := newTestTransport(t, remote.NewMemoryStore(), 256)

	var name strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&name, "%d,", (i*7919)%10007)
	}
	data := &models.DataCollection{
		Envelopes: []models.Envelope{{ID: "big", Name: name.String()}},
	}
	err := tr.Save(context.Background(), data, "laptop")
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestRemoteCounts(t *testing.T) {
	tr, _ := newTestTransport(t, remote.NewMemoryStore(), 0)
	ctx := context.Background()

	require.NoError(t, tr.Save(ctx, sampleData(4), "laptop"))

	counts, found, err := tr.RemoteCounts(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, counts[models.Envelopes])
	assert.Equal(t, 1, counts[models.Transactions])
	assert.Equal(t, 0, counts[models.PaycheckHistory])
}

// ── failures ────────────────────────────────────────────────────────────────

func TestLoad_WrongKeyIsReportedAndTreatedAsAbsent(t *testing.T) {
	store := remote.NewMemoryStore()
	writer, _ := newTestTransport(t, store, 0)
	require.NoError(t, writer.Save(context.Background(), sampleData(2), "laptop"))

	reader, reporter := newTestTransport(t, store, 0)
	data, err := reader.LoadFromCloud(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, data)
	require.Len(t, reporter.errs, 1)
	assert.ErrorIs(t, reporter.errs[0], crypto.ErrDecrypt)
	assert.Contains(t, reporter.errs[0].Error(), "decrypt")
}

func TestLoad_CorruptChunkIsReported(t *testing.T) {
	store := remote.NewMemoryStore()
	tr, reporter := newTestTransport(t, store, 0)
	ctx := context.Background()
	require.NoError(t, tr.Save(ctx, sampleData(2), "laptop"))

	gen := committedGeneration(t, tr)
	require.NoError(t, store.Put(ctx, testBudget, chunkPath(gen, models.Envelopes, 0), []byte("garbage-garbage-garbage-garbage")))

	data, err := tr.LoadFromCloud(ctx)
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.Len(t, reporter.errs, 1)
}

func TestLoad_MissingChunkIsAnError(t *testing.T) {
	store := remote.NewMemoryStore()
	tr, _ := newTestTransport(t, store, 0)
	ctx := context.Background()
	require.NoError(t, tr.Save(ctx, sampleData(2), "laptop"))

	require.NoError(t, store.Delete(ctx, testBudget, chunkPath(committedGeneration(t, tr), models.Transactions, 0)))

	_, err := tr.LoadFromCloud(ctx)
	assert.ErrorIs(t, err, ErrMissingChunk)
}

func TestLoad_RemoteIOErrorIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)
	tr, reporter := newTestTransport(t, store, 0)

	store.EXPECT().Get(gomock.Any(), testBudget, "manifest").
		Return(nil, fmt.Errorf("get document manifest: %w", remote.ErrUnavailable))

	_, err := tr.LoadFromCloud(context.Background())
	assert.ErrorIs(t, err, remote.ErrUnavailable)
	assert.Empty(t, reporter.errs)
}

func TestSave_WritesManifestFirstAndStopsOnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)
	tr, reporter := newTestTransport(t, store, 0)

	gomock.InOrder(
		store.EXPECT().Get(gomock.Any(), testBudget, "manifest").
			Return(nil, fmt.Errorf("get manifest: %w", remote.ErrDocumentNotFound)),
		store.EXPECT().Put(gomock.Any(), testBudget, "manifest", gomock.Any()).Return(nil),
		store.EXPECT().Put(gomock.Any(), testBudget, gomock.Cond(func(x any) bool {
			p, _ := x.(string)
			return strings.HasPrefix(p, "chunks/")
		}), gomock.Any()).Return(errors.New("network request failed: connection reset")),
	)

	assert.False(t, tr.SaveToCloud(context.Background(), sampleData(1), "laptop"))
	require.Len(t, reporter.errs, 1)
	assert.Contains(t, reporter.errs[0].Error(), "write chunk")
}

func TestSave_FailedUploadKeepsPreviousDataset(t *testing.T) {
	store := &failingStore{MemoryStore: remote.NewMemoryStore(), failPrefix: "chunks/"}
	tr, _ := newTestTransport(t, store, 0)
	ctx := context.Background()

	first := sampleData(2)
	require.NoError(t, tr.Save(ctx, first, "laptop"))
	committed := committedGeneration(t, tr)

	store.armed = true
	second := sampleData(5)
	second.Metadata.LastModified = testNow
	require.Error(t, tr.Save(ctx, second, "phone"))

	manifest, err := tr.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, committed, manifest.Generation)
	require.NotNil(t, manifest.Pending)
	assert.Equal(t, "phone", manifest.Pending.UpdatedBy)

	for n := 0; n < 3; n++ {
		out, err := tr.LoadFromCloud(ctx)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, first.RecordIDs(models.Envelopes), out.RecordIDs(models.Envelopes))
	}

	store.armed = false
	require.NoError(t, tr.Save(ctx, second, "phone"))

	out, err := tr.LoadFromCloud(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RecordIDs(models.Envelopes), out.RecordIDs(models.Envelopes))
	assert.True(t, testNow.Equal(out.Metadata.LastModified))

	manifest, err = tr.Manifest(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, committed, manifest.Generation)
	assert.Nil(t, manifest.Pending)
	assert.Len(t, collectionChunks(t, store, models.Envelopes), 1)
}

func TestSave_FailedFirstUploadLeavesNoDataset(t *testing.T) {
	store := &failingStore{MemoryStore: remote.NewMemoryStore(), failPrefix: "chunks/", armed: true}
	tr, reporter := newTestTransport(t, store, 0)
	ctx := context.Background()

	assert.False(t, tr.SaveToCloud(ctx, sampleData(2), "laptop"))

	data, err := tr.LoadFromCloud(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
	_, found, err := tr.RemoteCounts(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	store.armed = false
	require.True(t, tr.SaveToCloud(ctx, sampleData(2), "laptop"))

	data, err = tr.LoadFromCloud(ctx)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 3, data.TotalItems())
	assert.Len(t, reporter.errs, 1)
}

func TestClearCloud(t *testing.T) {
	store := remote.NewMemoryStore()
	tr, _ := newTestTransport(t, store, 0)
	ctx := context.Background()
	require.NoError(t, tr.Save(ctx, sampleData(3), "laptop"))

	require.NoError(t, tr.ClearCloud(ctx))

	paths, err := store.List(ctx, testBudget, "")
	require.NoError(t, err)
	assert.Empty(t, paths)

	data, err := tr.LoadFromCloud(ctx)
	assert.NoError(t, err)
	assert.Nil(t, data)
}
