package service

import (
	"time"

	"github.com/MKhiriev/envelope-sync/models"
)

// DetermineSyncDirection decides which way one sync cycle moves data. It is
// a pure function of the two datasets and the participant role; a nil
// dataset counts as empty.
//
// Precedence:
//  1. remote empty, local not: toRemote
//  2. local empty, remote not: fromRemote
//  3. both empty: fromRemote for a shared participant, toRemote otherwise
//  4. shared participant and remote holds more records: fromRemote
//  5. newer metadata LastModified wins, equal timestamps: bidirectional
func DetermineSyncDirection(local, remote *models.DataCollection, sharedParticipant bool) models.SyncDirection {
	localItems, remoteItems := local.TotalItems(), remote.TotalItems()

	switch {
	case remoteItems == 0 && localItems > 0:
		return models.DirectionToRemote
	case localItems == 0 && remoteItems > 0:
		return models.DirectionFromRemote
	case localItems == 0 && remoteItems == 0:
		if sharedParticipant {
			return models.DirectionFromRemote
		}
		return models.DirectionToRemote
	case sharedParticipant && remoteItems > localItems:
		return models.DirectionFromRemote
	}

	localModified := truncateMillis(local.Metadata.LastModified)
	remoteModified := truncateMillis(remote.Metadata.LastModified)
	switch {
	case localModified.After(remoteModified):
		return models.DirectionToRemote
	case remoteModified.After(localModified):
		return models.DirectionFromRemote
	default:
		return models.DirectionBidirectional
	}
}

// Timestamps travel as milliseconds, so finer precision must not decide a
// direction.
func truncateMillis(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}
