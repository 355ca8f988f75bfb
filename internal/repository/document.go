package repository

import (
	"context"

	"pdfmind/internal/domain"
)

// DocumentRepository exposes persistence operations for Document records.
// All lookups are scoped by the owning user id.
type DocumentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, doc *domain.Document) (int64, error)
	Get(ctx context.Context, userID, id int64) (*domain.Document, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Document, error)
	Rename(ctx context.Context, userID, id int64, title string) error
	Delete(ctx context.Context, userID, id int64) error
}
