package service

import (
	"strings"

	"github.com/MKhiriev/envelope-sync/models"
)

// categoryKeywords is evaluated top to bottom; the first category with a
// keyword contained in the lowercased message wins. Encryption comes before
// authentication so "encryption key" is never read as an auth failure.
var categoryKeywords = []struct {
	category models.ErrorCategory
	keywords []string
}{
	{models.CategoryNetwork, []string{"network", "fetch", "timeout", "connection", "cors", "offline", "unreachable", "dial", "eof", "circuit breaker"}},
	{models.CategoryEncryption, []string{"encrypt", "decrypt", "cipher", "encryption key", "crypto"}},
	{models.CategoryFirebase, []string{"firebase", "firestore", "permission", "quota", "resource-exhausted", "unavailable", "deadline", "s3", "postgres"}},
	{models.CategoryValidation, []string{"validation", "invalid", "missing", "required", "malformed"}},
	{models.CategoryStorage, []string{"storage", "sqlite", "database", "disk", "badger", "transaction"}},
	{models.CategoryAuthentication, []string{"auth", "unauthorized", "unauthenticated", "token", "login", "forbidden"}},
}

// CategorizeError assigns a diagnostic category to err. The result is only
// used for reporting; it never changes control flow.
func CategorizeError(err error) models.ErrorCategory {
	if err == nil {
		return models.CategoryUnknown
	}
	return CategorizeMessage(err.Error())
}

// CategorizeMessage is CategorizeError for a bare message.
func CategorizeMessage(msg string) models.ErrorCategory {
	lower := strings.ToLower(msg)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return models.CategoryUnknown
}
