package validators

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/models"
)

// Field name constants used to restrict validation to a subset of rules.
const (
	// FieldIDs requires every record to carry a non-empty id that is unique
	// within its collection.
	FieldIDs = "ids"

	// FieldOrder requires every collection to be sorted by id.
	FieldOrder = "order"

	// FieldMetadata checks the metadata singleton: a dataset holding records
	// must carry a LastModified that is not in the future.
	FieldMetadata = "metadata"

	// FieldReferences requires transactions and bills to point at existing
	// envelopes. Not part of the default set: a dangling reference is a
	// finding, not a reason to refuse a push.
	FieldReferences = "references"

	// FieldBackupInfo checks that a backup's recorded counts match its data.
	FieldBackupInfo = "backup_info"
)

// DefaultFields is the rule set used when Validate is called without fields.
var DefaultFields = []string{FieldIDs, FieldOrder, FieldMetadata}

// AllFields lists every rule that applies to a DataCollection.
var AllFields = []string{FieldIDs, FieldOrder, FieldMetadata, FieldReferences}

// clockSkew is how far a LastModified may run ahead of the local clock.
const clockSkew = 24 * time.Hour

// CollectionValidator implements [Validator] for models.DataCollection and
// models.Backup. Both value and pointer forms are accepted.
type CollectionValidator struct {
	clock clock.Clock
}

// NewCollectionValidator constructs a CollectionValidator. A nil clock uses
// the wall clock.
func NewCollectionValidator(clk clock.Clock) Validator {
	if clk == nil {
		clk = clock.Real()
	}
	return &CollectionValidator{clock: clk}
}

// Validate dispatches on the dynamic type of obj.
//
// Supported types:
//   - models.DataCollection / *models.DataCollection
//   - models.Backup / *models.Backup
//
// Returns ErrUnsupportedType for anything else.
func (v *CollectionValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.DataCollection:
		return v.validateCollection(ctx, &value, fields...)
	case *models.DataCollection:
		if value == nil {
			return ErrNilCollection
		}
		return v.validateCollection(ctx, value, fields...)

	case models.Backup:
		return v.validateBackup(ctx, value, fields...)
	case *models.Backup:
		if value == nil {
			return ErrNilCollection
		}
		return v.validateBackup(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateCollection runs the named rules against data.
//
// Default validated fields: ids, order, metadata.
func (v *CollectionValidator) validateCollection(_ context.Context, data *models.DataCollection, fields ...string) error {
	if len(fields) == 0 {
		fields = DefaultFields
	}

	for _, f := range fields {
		switch f {
		case FieldIDs:
			for _, c := range models.AllCollections {
				if err := checkIDs(c, data.RecordIDs(c)); err != nil {
					return err
				}
			}
		case FieldOrder:
			for _, c := range models.AllCollections {
				if !slices.IsSorted(data.RecordIDs(c)) {
					return fmt.Errorf("%w: %s", ErrUnsortedCollection, c)
				}
			}
		case FieldMetadata:
			if err := v.checkMetadata(data); err != nil {
				return err
			}
		case FieldReferences:
			if err := checkReferences(data); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateBackup checks a snapshot before it is restored.
//
// Default validated fields: backup_info, ids.
func (v *CollectionValidator) validateBackup(ctx context.Context, backup models.Backup, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldBackupInfo, FieldIDs}
	}

	var dataFields []string
	for _, f := range fields {
		switch f {
		case FieldBackupInfo:
			if backup.Info.ID == "" || backup.Info.TotalRecords != backup.Data.TotalItems() {
				return fmt.Errorf("%w: recorded %d, found %d", ErrInvalidBackupInfo, backup.Info.TotalRecords, backup.Data.TotalItems())
			}
		default:
			dataFields = append(dataFields, f)
		}
	}

	if len(dataFields) == 0 {
		return nil
	}
	return v.validateCollection(ctx, &backup.Data, dataFields...)
}

func checkIDs(c models.Collection, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: %s at index %d", ErrMissingRecordID, c, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateRecordID, c, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (v *CollectionValidator) checkMetadata(data *models.DataCollection) error {
	lastModified := data.Metadata.LastModified
	if lastModified.IsZero() {
		if data.IsEmpty() {
			return nil
		}
		return ErrMissingTimestamp
	}
	if lastModified.After(v.clock.Now().Add(clockSkew)) {
		return fmt.Errorf("%w: %s", ErrFutureTimestamp, lastModified.UTC().Format(time.RFC3339))
	}
	return nil
}

func checkReferences(data *models.DataCollection) error {
	envelopes := make(map[string]struct{}, len(data.Envelopes))
	for _, e := range data.Envelopes {
		envelopes[e.ID] = struct{}{}
	}

	for _, t := range data.Transactions {
		if _, ok := envelopes[t.EnvelopeID]; t.EnvelopeID != "" && !ok {
			return fmt.Errorf("%w: transaction %s -> %s", ErrDanglingReference, t.ID, t.EnvelopeID)
		}
	}
	for _, b := range data.Bills {
		if _, ok := envelopes[b.EnvelopeID]; b.EnvelopeID != "" && !ok {
			return fmt.Errorf("%w: bill %s -> %s", ErrDanglingReference, b.ID, b.EnvelopeID)
		}
	}
	return nil
}
