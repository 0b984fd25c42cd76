package remote

import "errors"

// Messages carry the words the sync error taxonomy keys on, so a wrapped
// error lands in the right diagnostic category.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrBadRequest       = errors.New("invalid document request")
	ErrUnauthorized     = errors.New("unauthorized: document token rejected")
	ErrForbidden        = errors.New("forbidden: token does not grant access to this budget")
	ErrQuotaExceeded    = errors.New("remote quota exceeded")
	ErrUnavailable      = errors.New("remote store unavailable")

	ErrEmptyBudgetID = errors.New("invalid document address: missing budget id")
	ErrEmptyPath     = errors.New("invalid document address: missing path")
)

func checkAddress(budgetID, path string) error {
	if budgetID == "" {
		return ErrEmptyBudgetID
	}
	if path == "" {
		return ErrEmptyPath
	}
	return nil
}
