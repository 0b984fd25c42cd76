package store

import "errors"

// Sentinel errors returned by the stores to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrBackupNotFound is returned when a snapshot id is unknown.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrUnknownCollection is returned when a collection name has no table.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidRecord is returned when a record cannot be stored, for
	// example because its id is empty.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrNotFound is returned when a queried row does not exist.
	ErrNotFound = errors.New("not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// store methods when a SQL-level operation fails before any domain logic
// can be applied. Their messages mention "storage" so failures surface in
// the storage diagnostic category.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL query fails.
	ErrBuildingSQLQuery = errors.New("storage: error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("storage: error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("storage: failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("storage: failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("storage: failed to execute statement")

	// ErrScanningRows is returned when scanning result rows fails.
	ErrScanningRows = errors.New("storage: failed to scan rows")
)
