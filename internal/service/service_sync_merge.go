package service

import (
	"slices"
	"strings"
	"time"

	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/models"
)

// MergeCollections builds the record-level union of local and remote. A
// record present on both sides keeps the local copy. Metadata keeps the local
// balances and LastModified advances past both sides so the merged dataset
// wins the next arbitration.
func MergeCollections(local, remote *models.DataCollection, now time.Time) *models.DataCollection {
	if local == nil {
		local = &models.DataCollection{}
	}
	if remote == nil {
		remote = &models.DataCollection{}
	}

	merged := &models.DataCollection{
		Envelopes:       unionByID(local.Envelopes, remote.Envelopes),
		Transactions:    unionByID(local.Transactions, remote.Transactions),
		Bills:           unionByID(local.Bills, remote.Bills),
		Debts:           unionByID(local.Debts, remote.Debts),
		PaycheckHistory: unionByID(local.PaycheckHistory, remote.PaycheckHistory),
		Metadata:        local.Metadata,
	}

	newest := local.Metadata.LastModified
	if remote.Metadata.LastModified.After(newest) {
		newest = remote.Metadata.LastModified
	}
	merged.Metadata.LastModified = store.NextModified(now, newest)

	return merged
}

func unionByID[T models.Record](primary, secondary []T) []T {
	out := make([]T, 0, len(primary)+len(secondary))
	seen := make(map[string]struct{}, len(primary))

	for _, r := range primary {
		seen[r.RecordID()] = struct{}{}
		out = append(out, r)
	}
	for _, r := range secondary {
		if _, ok := seen[r.RecordID()]; ok {
			continue
		}
		seen[r.RecordID()] = struct{}{}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b T) int { return strings.Compare(a.RecordID(), b.RecordID()) })
	return out
}
