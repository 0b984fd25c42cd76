package remote

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-process [DocumentStore]. It backs tests, the local
// demo mode and the document server when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, budgetID, path string) ([]byte, error) {
	if err := checkAddress(budgetID, path); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.docs[budgetID][path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	return slices.Clone(body), nil
}

func (m *MemoryStore) Put(ctx context.Context, budgetID, path string, body []byte) error {
	if err := checkAddress(budgetID, path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	budget, ok := m.docs[budgetID]
	if !ok {
		budget = make(map[string][]byte)
		m.docs[budgetID] = budget
	}
	budget[path] = slices.Clone(body)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, budgetID, path string) error {
	if err := checkAddress(budgetID, path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs[budgetID], path)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, budgetID, prefix string) ([]string, error) {
	if budgetID == "" {
		return nil, ErrEmptyBudgetID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0)
	for path := range m.docs[budgetID] {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
