package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/golang/snappy"

	"github.com/MKhiriev/envelope-sync/models"
)

// Key prefixes for BadgerDB storage. Backup ids are time-ordered, so the
// lexical key order is the capture order.
const (
	backupInfoPrefix = "backup_info:"
	backupDataPrefix = "backup_data:"
)

// BadgerBackupStore implements [BackupStore] on BadgerDB. Snapshot data is
// stored snappy-compressed next to a small info record so listing never
// loads full datasets.
type BadgerBackupStore struct {
	db *badger.DB
}

// OpenBackupStore opens the badger database in dir, or an in-memory one when
// dir is empty.
func OpenBackupStore(dir string) (*BadgerBackupStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger backup store: %w", err)
	}
	return &BadgerBackupStore{db: db}, nil
}

// Put stores the snapshot and its info in one transaction.
func (s *BadgerBackupStore) Put(ctx context.Context, backup models.Backup) error {
	if backup.Info.ID == "" {
		return fmt.Errorf("%w: backup without id", ErrInvalidRecord)
	}

	info, err := json.Marshal(backup.Info)
	if err != nil {
		return fmt.Errorf("marshal backup info: %w", err)
	}
	data, err := json.Marshal(backup.Data)
	if err != nil {
		return fmt.Errorf("marshal backup data: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(backupInfoPrefix+backup.Info.ID), info); err != nil {
			return fmt.Errorf("storage: set backup info: %w", err)
		}
		if err := txn.Set([]byte(backupDataPrefix+backup.Info.ID), snappy.Encode(nil, data)); err != nil {
			return fmt.Errorf("storage: set backup data: %w", err)
		}
		return nil
	})
}

// Get loads a full snapshot.
func (s *BadgerBackupStore) Get(ctx context.Context, id string) (models.Backup, error) {
	var backup models.Backup

	err := s.db.View(func(txn *badger.Txn) error {
		if err := readJSON(txn, backupInfoPrefix+id, false, &backup.Info); err != nil {
			return err
		}
		return readJSON(txn, backupDataPrefix+id, true, &backup.Data)
	})
	if err != nil {
		return models.Backup{}, err
	}

	return backup, nil
}

// List returns backup infos, newest first.
func (s *BadgerBackupStore) List(ctx context.Context) ([]models.BackupInfo, error) {
	var infos []models.BackupInfo

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(backupInfoPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var info models.BackupInfo
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &info)
			})
			if err != nil {
				return fmt.Errorf("storage: decode backup info: %w", err)
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(infos, func(a, b models.BackupInfo) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return infos, nil
}

// Delete removes the given backups in one transaction. Unknown ids are
// ignored.
func (s *BadgerBackupStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			for _, key := range []string{backupInfoPrefix + id, backupDataPrefix + id} {
				if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("storage: delete backup %s: %w", id, err)
				}
			}
		}
		return nil
	})
}

func (s *BadgerBackupStore) Close() error {
	return s.db.Close()
}

func readJSON(txn *badger.Txn, key string, compressed bool, dst any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, strings.TrimPrefix(strings.TrimPrefix(key, backupInfoPrefix), backupDataPrefix))
	}
	if err != nil {
		return fmt.Errorf("storage: get %s: %w", key, err)
	}

	return item.Value(func(val []byte) error {
		if compressed {
			decoded, err := snappy.Decode(nil, val)
			if err != nil {
				return fmt.Errorf("storage: decompress backup: %w", err)
			}
			val = decoded
		}
		if err := json.NewDecoder(bytes.NewReader(val)).Decode(dst); err != nil {
			return fmt.Errorf("storage: decode backup: %w", err)
		}
		return nil
	})
}
