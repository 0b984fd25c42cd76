package validators

import "errors"

// Every message starts with "validation" so failures surface in the
// validation diagnostic category.
var (
	ErrUnsupportedType = errors.New("validation: unsupported type")
	ErrUnknownField    = errors.New("validation: unknown field")

	ErrNilCollection      = errors.New("validation: nil collection")
	ErrMissingRecordID    = errors.New("validation: record id is required")
	ErrDuplicateRecordID  = errors.New("validation: duplicate record id")
	ErrUnsortedCollection = errors.New("validation: collection is not sorted by id")
	ErrMissingTimestamp   = errors.New("validation: metadata lastModified is missing")
	ErrFutureTimestamp    = errors.New("validation: metadata lastModified is in the future")
	ErrDanglingReference  = errors.New("validation: reference to unknown envelope")
	ErrInvalidBackupInfo  = errors.New("validation: backup info does not match its data")
)
