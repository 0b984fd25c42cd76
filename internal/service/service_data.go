package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

type dataService struct {
	local     store.LocalStore
	validator validators.Validator
	events    EventBus
	clock     clock.Clock
	logger    *logger.Logger
}

// NewDataService builds the import/export service. events may be nil, in
// which case imports do not trigger a sync.
func NewDataService(local store.LocalStore, validator validators.Validator, events EventBus, clk clock.Clock, log *logger.Logger) DataService {
	if clk == nil {
		clk = clock.Real()
	}
	return &dataService{local: local, validator: validator, events: events, clock: clk, logger: log}
}

// Import writes data locally and publishes a critical import trigger.
//
// With merge the records are upserted and metadata balances are left alone.
// Without merge the whole local dataset is replaced; the imported metadata is
// kept but its LastModified is set to now so the import wins the next sync.
func (s *dataService) Import(ctx context.Context, data *models.DataCollection, merge bool) error {
	if data == nil {
		return ErrNilImport
	}
	data.SortByID()

	if s.validator != nil {
		if err := s.validator.Validate(ctx, data, validators.FieldIDs); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	if merge {
		if err := s.local.SaveRecords(ctx, data); err != nil {
			return fmt.Errorf("import merge: %w", err)
		}
	} else {
		current, err := s.local.GetMetadata(ctx)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		data.Metadata.LastModified = store.NextModified(s.clock.Now(), current.LastModified)
		if err = s.local.ReplaceAll(ctx, data); err != nil {
			return fmt.Errorf("import replace: %w", err)
		}
	}

	logger.FromContext(ctx).Info().
		Str("func", "dataService.Import").
		Bool("merge", merge).
		Int("total_items", data.TotalItems()).
		Msg("data imported")

	if s.events == nil {
		return nil
	}
	trigger := models.Trigger{Kind: models.TriggerImport, Critical: true, Reason: "import"}
	if err := s.events.PublishMutation(ctx, trigger); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "dataService.Import").Msg("import sync trigger not published")
	}
	return nil
}

func (s *dataService) Export(ctx context.Context) (*models.DataCollection, error) {
	data, err := s.local.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}
