package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfmind/internal/domain"
	"pdfmind/internal/pdf"
	"pdfmind/internal/repository"
	"pdfmind/internal/storage"
)

const (
	// DefaultMaxUploadBytes bounds the accepted PDF size.
	DefaultMaxUploadBytes = 10 << 20
	defaultStorageTimeout = 30 * time.Second
)

// DocumentService coordinates the document registry and upload intake.
type DocumentService interface {
	Upload(ctx context.Context, userID int64, filename, contentType string, data []byte) (*domain.Document, error)
	List(ctx context.Context, userID int64) ([]domain.Document, error)
	Get(ctx context.Context, userID, docID int64) (*domain.Document, error)
	Rename(ctx context.Context, userID, docID int64, title string) (*domain.Document, error)
	Delete(ctx context.Context, userID, docID int64) error
}

// DocumentOptions tunes upload intake behavior. Zero values fall back to
// defaults.
type DocumentOptions struct {
	MaxUploadBytes int64
	StorageTimeout time.Duration
	// PageCount overrides the best-effort page counter; defaults to pdf.PageCount.
	PageCount func(data []byte) int
}

type documentService struct {
	docs           repository.DocumentRepository
	store          storage.Service
	maxUploadBytes int64
	storageTimeout time.Duration
	pageCount      func(data []byte) int
}

func NewDocumentService(docs repository.DocumentRepository, store storage.Service, opts DocumentOptions) DocumentService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = defaultStorageTimeout
	}
	if opts.PageCount == nil {
		opts.PageCount = pdf.PageCount
	}
	return &documentService{
		docs:           docs,
		store:          store,
		maxUploadBytes: opts.MaxUploadBytes,
		storageTimeout: opts.StorageTimeout,
		pageCount:      opts.PageCount,
	}
}

func (s *documentService) Upload(ctx context.Context, userID int64, filename, contentType string, data []byte) (*domain.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if !pdf.IsPDF(contentType, data) {
		return nil, ErrInvalidFile
	}

	// Extraction failure must never abort the upload; the page count just
	// stays zero.
	pages := s.pageCount(data)

	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	obj, err := s.store.Put(storeCtx, uniqueKey(filename), "application/pdf", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &domain.Document{
		UserID:     userID,
		Title:      filename,
		URL:        obj.URL,
		StorageKey: obj.Key,
		Bytes:      int64(len(data)),
		Pages:      pages,
	}

	if _, err := s.docs.Create(ctx, doc); err != nil {
		// The object is already stored; try to take it back out so the
		// registry and storage do not drift apart.
		cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), s.storageTimeout)
		defer cancelCleanup()
		if delErr := s.store.Delete(cleanupCtx, obj.Key); delErr != nil {
			return nil, fmt.Errorf("register document: %w (orphaned object %s: %v)", err, obj.Key, delErr)
		}
		return nil, fmt.Errorf("register document: %w", err)
	}

	return doc, nil
}

func (s *documentService) List(ctx context.Context, userID int64) ([]domain.Document, error) {
	return s.docs.ListByUser(ctx, userID)
}

func (s *documentService) Get(ctx context.Context, userID, docID int64) (*domain.Document, error) {
	doc, err := s.docs.Get(ctx, userID, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Rename(ctx context.Context, userID, docID int64, title string) (*domain.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}

	if err := s.docs.Rename(ctx, userID, docID, title); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, docID)
}

// Delete removes the stored object first, then the registry entry. A storage
// failure leaves the registry entry intact so the delete can be retried; a
// registry failure after the object is gone is surfaced as drift rather than
// swallowed.
func (s *documentService) Delete(ctx context.Context, userID, docID int64) error {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.store.Delete(storeCtx, doc.StorageKey); err != nil {
		return fmt.Errorf("remove stored object: %w", err)
	}

	if err := s.docs.Delete(ctx, userID, docID); err != nil {
		return fmt.Errorf("remove registry entry for deleted object %s: %w", doc.StorageKey, err)
	}
	return nil
}

// uniqueKey derives a non-overwriting object key from the uploaded filename.
func uniqueKey(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s-%s.pdf", base, uuid.NewString())
}
