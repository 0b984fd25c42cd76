// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package transport moves the budget dataset between the local engine and a
// remote document store.
//
// A dataset is stored as one manifest document plus, per collection, a run of
// chunk documents at chunks/<generation>/<collection>/<index>. Every upload
// writes a fresh generation and the manifest names the committed one, so an
// interrupted upload never damages the dataset readers see. Every document is
// JSON, snappy-compressed and then encrypted with the budget key, so the
// remote store only ever sees opaque blobs.
package transport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/crypto"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/internal/utils"
	"github.com/MKhiriev/envelope-sync/models"
)

// FailureReporter receives failures that are swallowed rather than returned,
// so they still reach the health classification.
type FailureReporter interface {
	ReportError(err error)
}

// ChunkedTransport is the encrypted, chunked cloud transport.
type ChunkedTransport struct {
	store     remote.DocumentStore
	cipher    crypto.Cipher
	reporter  FailureReporter
	clock     clock.Clock
	ids       *utils.UUIDGenerator
	chunkSize int

	mu       sync.RWMutex
	budgetID string
	keys     crypto.KeyProvider

	logger *logger.Logger
}

// NewChunkedTransport builds a transport. reporter may be nil. A chunkSize
// of zero or less selects the default.
func NewChunkedTransport(store remote.DocumentStore, cipher crypto.Cipher, reporter FailureReporter, clk clock.Clock, chunkSize int, log *logger.Logger) *ChunkedTransport {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if clk == nil {
		clk = clock.Real()
	}

	return &ChunkedTransport{
		store:     store,
		cipher:    cipher,
		reporter:  reporter,
		clock:     clk,
		ids:       utils.NewUUIDGenerator(),
		chunkSize: chunkSize,
		logger:    log,
	}
}

// DefaultChunkSize keeps every document under typical 1 MiB document limits.
const DefaultChunkSize = 900 * 1024

// Initialize binds the transport to a budget and its key. It fails fast when
// the budget id is empty, keys is nil or the key is not resolved yet.
func (t *ChunkedTransport) Initialize(budgetID string, keys crypto.KeyProvider) error {
	if budgetID == "" {
		return ErrMissingBudgetID
	}
	if keys == nil {
		return ErrMissingKeyProvider
	}
	if _, err := keys.Key(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}

	t.mu.Lock()
	t.budgetID = budgetID
	t.keys = keys
	t.mu.Unlock()

	t.logger.Debug().Str("func", "ChunkedTransport.Initialize").Str("budget_id", budgetID).Msg("transport initialized")
	return nil
}

// BudgetID returns the bound budget id, or "" before Initialize.
func (t *ChunkedTransport) BudgetID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.budgetID
}

func (t *ChunkedTransport) session() (string, []byte, error) {
	t.mu.RLock()
	budgetID, keys := t.budgetID, t.keys
	t.mu.RUnlock()

	if budgetID == "" || keys == nil {
		return "", nil, ErrNotInitialized
	}

	key, err := keys.Key()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}
	return budgetID, key, nil
}

// SaveToCloud is the boolean form of [ChunkedTransport.Save] for callers
// that only need to know whether the upload committed. The failure is
// logged and reported to the failure reporter. The sync engine calls Save
// directly so the error reaches its health record.
func (t *ChunkedTransport) SaveToCloud(ctx context.Context, data *models.DataCollection, actor string) bool {
	if err := t.Save(ctx, data, actor); err != nil {
		t.logger.Err(err).Str("func", "ChunkedTransport.SaveToCloud").Msg("save to cloud failed")
		if t.reporter != nil {
			t.reporter.ReportError(err)
		}
		return false
	}
	return true
}

// Save uploads data as a new chunk generation.
//
// The manifest is written first and announces the pending upload while
// still naming the previously committed generation. Then the chunks are
// written, and the final manifest rewrite commits the new generation.
// Chunks of every other generation are deleted afterwards. A failure at any
// step leaves the previous dataset readable, and the next Save starts over
// with another generation.
func (t *ChunkedTransport) Save(ctx context.Context, data *models.DataCollection, actor string) error {
	log := logger.FromContext(ctx)

	budgetID, key, err := t.session()
	if err != nil {
		return err
	}
	if data == nil {
		return errors.New("invalid dataset: nil collection")
	}

	now := t.clock.Now().UTC()
	generation := t.ids.Generate()

	chunks := make(map[models.Collection][][]byte, len(models.AllCollections))
	manifest := Manifest{
		Version:      ManifestVersion,
		Generation:   generation,
		LastModified: data.Metadata.LastModified,
		UpdatedBy:    actor,
		SavedAt:      now,
		ChunkSize:    t.chunkSize,
		Chunks:       make(map[models.Collection]int, len(models.AllCollections)),
		Counts:       data.Counts(),
		Metadata:     data.Metadata,
	}

	for _, c := range models.AllCollections {
		records, err := models.EncodeCollection(data, c)
		if err != nil {
			return fmt.Errorf("invalid dataset: %w", err)
		}
		sealed, err := t.encodeChunks(key, records)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		chunks[c] = sealed
		manifest.Chunks[c] = len(sealed)
	}

	current, err := t.fetchManifest(ctx, budgetID, key)
	if err != nil && !errors.Is(err, errUndecodable) {
		return err
	}
	intent := Manifest{Version: ManifestVersion}
	if current != nil {
		intent = *current
	}
	intent.Pending = &Upload{Generation: generation, UpdatedBy: actor, StartedAt: now}

	if err = t.putManifest(ctx, budgetID, key, intent); err != nil {
		return err
	}

	written := 0
	for _, c := range models.AllCollections {
		for i, blob := range chunks[c] {
			if err = t.store.Put(ctx, budgetID, chunkPath(generation, c, i), blob); err != nil {
				return fmt.Errorf("write chunk %s: %w", chunkPath(generation, c, i), err)
			}
			written++
		}
	}

	if err = t.putManifest(ctx, budgetID, key, manifest); err != nil {
		return err
	}

	if err = t.deleteStaleChunks(ctx, budgetID, generation); err != nil {
		// the new generation is committed; leftovers go with the next save
		log.Warn().Err(err).Str("func", "ChunkedTransport.Save").Msg("stale chunks not deleted")
	}

	log.Info().
		Str("func", "ChunkedTransport.Save").
		Str("budget_id", budgetID).
		Str("generation", generation).
		Int("chunks", written).
		Int("total_items", data.TotalItems()).
		Msg("dataset saved to cloud")
	return nil
}

func (t *ChunkedTransport) putManifest(ctx context.Context, budgetID string, key []byte, manifest Manifest) error {
	sealed, err := t.seal(key, manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err = t.store.Put(ctx, budgetID, manifestPath, sealed); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// deleteStaleChunks removes every chunk outside the kept generation.
func (t *ChunkedTransport) deleteStaleChunks(ctx context.Context, budgetID, keep string) error {
	paths, err := t.store.List(ctx, budgetID, chunksRoot)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	for _, p := range paths {
		if strings.HasPrefix(p, generationPrefix(keep)) {
			continue
		}
		if err = t.store.Delete(ctx, budgetID, p); err != nil {
			return fmt.Errorf("delete stale chunk %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromCloud downloads the committed remote dataset.
//
// It returns nil, nil when nothing has been committed, and also when the
// dataset cannot be decrypted or decoded; that failure is logged and handed
// to the failure reporter. Remote I/O failures and missing chunks are
// returned as errors.
func (t *ChunkedTransport) LoadFromCloud(ctx context.Context) (*models.DataCollection, error) {
	budgetID, key, err := t.session()
	if err != nil {
		return nil, err
	}

	manifest, err := t.readManifest(ctx, budgetID, key)
	if err != nil || !manifest.Committed() {
		return nil, err
	}

	data := &models.DataCollection{Metadata: manifest.Metadata}
	for _, c := range models.AllCollections {
		records := make([]json.RawMessage, 0, manifest.Counts[c])
		for i := 0; i < manifest.Chunks[c]; i++ {
			path := chunkPath(manifest.Generation, c, i)
			blob, err := t.store.Get(ctx, budgetID, path)
			if errors.Is(err, remote.ErrDocumentNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrMissingChunk, path)
			}
			if err != nil {
				return nil, fmt.Errorf("read chunk %s: %w", path, err)
			}

			var part []json.RawMessage
			if err = t.open(key, blob, &part); err != nil {
				t.undecodable(ctx, path, err)
				return nil, nil
			}
			records = append(records, part...)
		}

		if len(records) != manifest.Counts[c] {
			return nil, fmt.Errorf("%w: %s has %d records, manifest says %d", ErrInconsistentRemote, c, len(records), manifest.Counts[c])
		}
		if err = models.DecodeCollection(data, c, records); err != nil {
			t.undecodable(ctx, string(c), err)
			return nil, nil
		}
	}

	data.SortByID()
	return data, nil
}

// readManifest returns nil, nil for an absent or unreadable manifest; the
// unreadable case is reported.
func (t *ChunkedTransport) readManifest(ctx context.Context, budgetID string, key []byte) (*Manifest, error) {
	manifest, err := t.fetchManifest(ctx, budgetID, key)
	if errors.Is(err, errUndecodable) {
		t.undecodable(ctx, manifestPath, err)
		return nil, nil
	}
	return manifest, err
}

// errUndecodable marks a manifest that exists but cannot be opened.
var errUndecodable = errors.New("undecodable")

func (t *ChunkedTransport) fetchManifest(ctx context.Context, budgetID string, key []byte) (*Manifest, error) {
	blob, err := t.store.Get(ctx, budgetID, manifestPath)
	if errors.Is(err, remote.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err = t.open(key, blob, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", errUndecodable, err)
	}
	if err = manifest.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errUndecodable, err)
	}
	return &manifest, nil
}

func (t *ChunkedTransport) undecodable(ctx context.Context, document string, err error) {
	err = fmt.Errorf("remote document %s unreadable: %w", document, err)
	logger.FromContext(ctx).Err(err).Str("func", "ChunkedTransport.LoadFromCloud").Msg("treating remote dataset as absent")
	if t.reporter != nil {
		t.reporter.ReportError(err)
	}
}

// ClearCloud deletes the manifest and every chunk of the budget. The
// manifest goes first so readers never see a manifest without chunks.
func (t *ChunkedTransport) ClearCloud(ctx context.Context) error {
	budgetID, _, err := t.session()
	if err != nil {
		return err
	}

	if err = t.store.Delete(ctx, budgetID, manifestPath); err != nil {
		return fmt.Errorf("delete manifest: %w", err)
	}

	paths, err := t.store.List(ctx, budgetID, chunksRoot)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	for _, p := range paths {
		if err = t.store.Delete(ctx, budgetID, p); err != nil {
			return fmt.Errorf("delete chunk %s: %w", p, err)
		}
	}

	logger.FromContext(ctx).Warn().
		Str("func", "ChunkedTransport.ClearCloud").
		Str("budget_id", budgetID).
		Int("chunks", len(paths)).
		Msg("remote dataset cleared")
	return nil
}

// RemoteCounts reads only the manifest. found is false when there is no
// readable remote dataset.
func (t *ChunkedTransport) RemoteCounts(ctx context.Context) (counts models.Counts, found bool, err error) {
	budgetID, key, err := t.session()
	if err != nil {
		return nil, false, err
	}

	manifest, err := t.readManifest(ctx, budgetID, key)
	if err != nil || !manifest.Committed() {
		return nil, false, err
	}

	counts = make(models.Counts, len(models.AllCollections))
	for _, c := range models.AllCollections {
		counts[c] = manifest.Counts[c]
	}
	return counts, true, nil
}

// Manifest returns the decoded remote manifest, or nil when absent.
func (t *ChunkedTransport) Manifest(ctx context.Context) (*Manifest, error) {
	budgetID, key, err := t.session()
	if err != nil {
		return nil, err
	}
	return t.readManifest(ctx, budgetID, key)
}

// Ping checks remote connectivity. It does not require Initialize.
func (t *ChunkedTransport) Ping(ctx context.Context) error {
	return t.store.Ping(ctx)
}

// ChunkPaths lists the chunk documents currently stored for the budget.
func (t *ChunkedTransport) ChunkPaths(ctx context.Context) ([]string, error) {
	budgetID, _, err := t.session()
	if err != nil {
		return nil, err
	}

	paths, err := t.store.List(ctx, budgetID, chunksRoot)
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}
