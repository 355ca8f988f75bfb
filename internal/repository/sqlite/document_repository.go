package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pdfmind/internal/domain"
	"pdfmind/internal/repository"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	bytes INTEGER NOT NULL DEFAULT 0,
	pages INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id);
`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) repository.DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) (int64, error) {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO documents (user_id, title, url, storage_key, bytes, pages, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.UserID,
		doc.Title,
		doc.URL,
		doc.StorageKey,
		doc.Bytes,
		doc.Pages,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("document last insert id: %w", err)
	}
	doc.ID = id
	return id, nil
}

func (r *DocumentRepository) Get(ctx context.Context, userID, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, url, storage_key, bytes, pages, created_at, updated_at
FROM documents
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanDocument(row)
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, url, storage_key, bytes, pages, created_at, updated_at
FROM documents
WHERE user_id = ?
ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.Title,
			&doc.URL,
			&doc.StorageKey,
			&doc.Bytes,
			&doc.Pages,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (r *DocumentRepository) Rename(ctx context.Context, userID, id int64, title string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET title = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		title,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return requireAffected(res)
}

func (r *DocumentRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM documents
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDocument(row interface {
	Scan(dest ...any) error
}) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&doc.URL,
		&doc.StorageKey,
		&doc.Bytes,
		&doc.Pages,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}
