// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys,
// HTTP response writing, HTTP client initialization, JWT token generation
// and validation, and id generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// BudgetIDCtxKey is the key under which the auth middleware stores the budget
// id taken from a validated token.
//
//	ctx := context.WithValue(ctx, utils.BudgetIDCtxKey, "household")
var BudgetIDCtxKey = contextKey("budgetID")

// GetBudgetIDFromContext retrieves the authenticated budget id.
//
// ok is false when the value is missing, empty or has an unexpected type.
func GetBudgetIDFromContext(ctx context.Context) (string, bool) {
	budgetID, ok := ctx.Value(BudgetIDCtxKey).(string)
	return budgetID, ok && budgetID != ""
}
