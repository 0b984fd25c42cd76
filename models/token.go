package models

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a document-API JWT.
//
// The "sub" claim carries the budget id the bearer may read and write.
// BudgetID caches it after parsing.
type Token struct {
	// Token is the underlying JWT used for signing and claim inspection.
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS form sent in the Authorization header.
	SignedString string `json:"-"`

	BudgetID string `json:"-"`
}

// GetBudgetID returns the subject claim. An empty subject is an error.
func (t *Token) GetBudgetID() (string, error) {
	budgetID, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting BudgetID from token: %w", err)
	}
	if budgetID == "" {
		return "", errors.New("token has empty subject")
	}

	return budgetID, nil
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
