package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
)

type documentService struct {
	documents remote.DocumentStore
	logger    *logger.Logger
}

// NewDocumentService serves documents from the given store. The docserver
// backs it with postgres, or with memory when no DSN is configured.
func NewDocumentService(documents remote.DocumentStore, logger *logger.Logger) DocumentService {
	return &documentService{documents: documents, logger: logger}
}

func (s *documentService) Get(ctx context.Context, budgetID, path string) ([]byte, error) {
	if err := checkDocumentAddress(budgetID, path); err != nil {
		return nil, err
	}
	return s.documents.Get(ctx, budgetID, path)
}

func (s *documentService) Put(ctx context.Context, budgetID, path string, body []byte) error {
	if err := checkDocumentAddress(budgetID, path); err != nil {
		return err
	}
	if err := s.documents.Put(ctx, budgetID, path, body); err != nil {
		logger.FromContext(ctx).Err(err).Str("budget_id", budgetID).Str("path", path).Msg("document write failed")
		return err
	}
	return nil
}

func (s *documentService) Delete(ctx context.Context, budgetID, path string) error {
	if err := checkDocumentAddress(budgetID, path); err != nil {
		return err
	}
	return s.documents.Delete(ctx, budgetID, path)
}

// List accepts an empty prefix, which lists the whole budget.
func (s *documentService) List(ctx context.Context, budgetID, prefix string) ([]string, error) {
	if err := checkBudgetID(budgetID); err != nil {
		return nil, err
	}
	if prefix != "" {
		if err := checkPath(prefix); err != nil {
			return nil, err
		}
	}
	return s.documents.List(ctx, budgetID, prefix)
}

func (s *documentService) Ping(ctx context.Context) error {
	return s.documents.Ping(ctx)
}

func checkDocumentAddress(budgetID, path string) error {
	if err := checkBudgetID(budgetID); err != nil {
		return err
	}
	return checkPath(path)
}

func checkBudgetID(budgetID string) error {
	if budgetID == "" || strings.ContainsAny(budgetID, "/\\") || budgetID == "." || budgetID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidBudgetID, budgetID)
	}
	return nil
}

// checkPath accepts slash-separated relative paths without empty, "." or
// ".." segments.
func checkPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentPath, path)
	}
	for _, segment := range strings.Split(strings.TrimSuffix(path, "/"), "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidDocumentPath, path)
		}
	}
	return nil
}
