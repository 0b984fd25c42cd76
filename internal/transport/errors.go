package transport

import "errors"

var (
	// ErrNotInitialized is returned by every operation until Initialize
	// succeeds.
	ErrNotInitialized = errors.New("transport not initialized")

	ErrMissingBudgetID    = errors.New("transport not initialized: missing budget id")
	ErrMissingKeyProvider = errors.New("transport not initialized: missing encryption key provider")

	// ErrRecordTooLarge is returned when a single record does not fit into
	// one chunk even after compression and encryption.
	ErrRecordTooLarge = errors.New("invalid record: exceeds chunk size")

	// ErrMissingChunk is returned when the manifest references a chunk the
	// remote store does not hold.
	ErrMissingChunk = errors.New("remote chunk missing")

	// ErrInconsistentRemote is returned when chunk contents disagree with the
	// manifest counts.
	ErrInconsistentRemote = errors.New("invalid remote dataset: counts do not match manifest")
)
