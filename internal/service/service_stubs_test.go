package service

import (
	"context"
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/MKhiriev/envelope-sync/models"
)

// stubTransport is an in-memory CloudTransport. When gate is set,
// LoadFromCloud signals entered and blocks until gate is closed.
type stubTransport struct {
	mu sync.Mutex

	remote   *models.DataCollection
	loadErr  error
	saveErr  error
	clearErr error

	loads  int
	saves  int
	clears int

	gate    chan struct{}
	entered chan struct{}
}

func newStubTransport() *stubTransport {
	return &stubTransport{entered: make(chan struct{}, 8)}
}

func (s *stubTransport) Save(ctx context.Context, data *models.DataCollection, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.remote = cloneData(data)
	return nil
}

func (s *stubTransport) LoadFromCloud(ctx context.Context) (*models.DataCollection, error) {
	s.mu.Lock()
	s.loads++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		s.entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneData(s.remote), nil
}

func (s *stubTransport) ClearCloud(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.remote = nil
	return nil
}

func (s *stubTransport) RemoteCounts(ctx context.Context) (models.Counts, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	if s.remote == nil {
		return nil, false, nil
	}
	return s.remote.Counts(), true, nil
}

func (s *stubTransport) BudgetID() string { return "household" }

func (s *stubTransport) Ping(ctx context.Context) error { return nil }

func (s *stubTransport) stored() *models.DataCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneData(s.remote)
}

func (s *stubTransport) calls() (loads, saves, clears int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves, s.clears
}

func (s *stubTransport) set(fn func(s *stubTransport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func cloneData(d *models.DataCollection) *models.DataCollection {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}
	out := &models.DataCollection{}
	if err = json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

// stubBackups records snapshot reasons; err makes every snapshot fail.
type stubBackups struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (b *stubBackups) CreateSnapshot(ctx context.Context, reason string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	b.reasons = append(b.reasons, reason)
	return "backup-" + reason, nil
}

func (b *stubBackups) Restore(ctx context.Context, id string) error { return errors.New("not supported") }

func (b *stubBackups) List(ctx context.Context) ([]models.BackupInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	infos := make([]models.BackupInfo, 0, len(b.reasons))
	for _, r := range b.reasons {
		infos = append(infos, models.BackupInfo{ID: "backup-" + r, Reason: r, CreatedAt: testNow})
	}
	return infos, nil
}

func (b *stubBackups) Latest(ctx context.Context) (*models.BackupInfo, error) {
	infos, _ := b.List(ctx)
	if len(infos) == 0 {
		return nil, ErrNoBackups
	}
	return &infos[0], nil
}

func (b *stubBackups) Delete(ctx context.Context, id string) error { return nil }

func (b *stubBackups) snapshots() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.reasons...)
}
