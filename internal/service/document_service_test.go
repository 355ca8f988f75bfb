package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfmind/internal/domain"
	"pdfmind/internal/repository"
	"pdfmind/internal/storage"
)

var pdfBytes = []byte("%PDF-1.4\nfake document body")

type fakeDocRepo struct {
	docs      map[int64]domain.Document
	nextID    int64
	createErr error
	deleteErr error
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[int64]domain.Document{}}
}

func (r *fakeDocRepo) Init(ctx context.Context) error { return nil }

func (r *fakeDocRepo) Create(ctx context.Context, doc *domain.Document) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	doc.ID = r.nextID
	r.docs[doc.ID] = *doc
	return doc.ID, nil
}

func (r *fakeDocRepo) Get(ctx context.Context, userID, id int64) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &doc, nil
}

func (r *fakeDocRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocRepo) Rename(ctx context.Context, userID, id int64, title string) error {
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return repository.ErrNotFound
	}
	doc.Title = title
	r.docs[id] = doc
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, userID, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

type fakeStore struct {
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (storage.StoredObject, error) {
	if s.putErr != nil {
		return storage.StoredObject{}, s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.StoredObject{}, err
	}
	s.objects[key] = data
	return storage.StoredObject{Key: key, URL: "https://storage.test/" + key}, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func newTestService(repo *fakeDocRepo, store *fakeStore, pages int) DocumentService {
	return NewDocumentService(repo, store, DocumentOptions{
		PageCount: func(data []byte) int { return pages },
	})
}

func TestUpload_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeDocRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, 3)

	doc, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", doc.Title)
	assert.Equal(t, 3, doc.Pages)
	assert.Equal(t, int64(len(pdfBytes)), doc.Bytes)
	assert.NotEmpty(t, doc.StorageKey)
	assert.NotEmpty(t, doc.URL)

	exists, err := store.Exists(context.Background(), doc.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)

	docs, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "report.pdf", docs[0].Title)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeDocRepo(), newFakeStore(), 0)

	_, err := svc.Upload(context.Background(), 1, "notes.txt", "text/plain", []byte("hello"))
	assert.ErrorIs(t, err, ErrInvalidFile)

	// spoofed content type with non-PDF payload must still be rejected
	_, err = svc.Upload(context.Background(), 1, "fake.pdf", "application/pdf", []byte("hello"))
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestUpload_RejectsOversize(t *testing.T) {
	t.Parallel()

	repo := newFakeDocRepo()
	store := newFakeStore()
	svc := NewDocumentService(repo, store, DocumentOptions{
		MaxUploadBytes: 8,
		PageCount:      func(data []byte) int { return 0 },
	})

	_, err := svc.Upload(context.Background(), 1, "big.pdf", "application/pdf", pdfBytes)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, repo.docs)
	assert.Empty(t, store.objects)
}

func TestUpload_StorageFailureLeavesNoRegistryEntry(t *testing.T) {
	t.Parallel()

	repo := newFakeDocRepo()
	store := newFakeStore()
	store.putErr = errors.New("bucket unavailable")
	svc := newTestService(repo, store, 0)

	_, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.Error(t, err)
	assert.Empty(t, repo.docs)
}

func TestUpload_RegistryFailureCompensatesStorage(t *testing.T) {
	t.Parallel()

	repo := newFakeDocRepo()
	repo.createErr = errors.New("db down")
	store := newFakeStore()
	svc := newTestService(repo, store, 0)

	_, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.Error(t, err)
	assert.Empty(t, store.objects, "orphaned object should be removed")
}

func TestUpload_ExtractionFailureDefaultsToZeroPages(t *testing.T) {
	t.Parallel()

	// the real page counter fails on these bytes; upload must still succeed
	svc := NewDocumentService(newFakeDocRepo(), newFakeStore(), DocumentOptions{})

	doc, err := svc.Upload(context.Background(), 1, "broken.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Pages)
}

func TestRename(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeDocRepo(), newFakeStore(), 0)

	doc, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)

	renamed, err := svc.Rename(context.Background(), 1, doc.ID, "Q2 Report")
	require.NoError(t, err)
	assert.Equal(t, "Q2 Report", renamed.Title)

	got, err := svc.Get(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q2 Report", got.Title)
	assert.Equal(t, doc.StorageKey, got.StorageKey, "storage key is immutable")
	assert.Equal(t, doc.URL, got.URL, "url is immutable")

	_, err = svc.Rename(context.Background(), 1, 9999, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Rename(context.Background(), 1, doc.ID, "   ")
	assert.Error(t, err)
}

func TestDelete_RemovesStorageAndRegistry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newTestService(newFakeDocRepo(), store, 0)

	doc, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, doc.ID))

	_, err = svc.Get(context.Background(), 1, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Exists(context.Background(), doc.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDelete_StorageFailureKeepsRegistryEntry(t *testing.T) {
	t.Parallel()

	repo := newFakeDocRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, 0)

	doc, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)

	store.deleteErr = errors.New("storage down")
	err = svc.Delete(context.Background(), 1, doc.ID)
	require.Error(t, err)

	// entry stays so the delete can be retried
	_, err = svc.Get(context.Background(), 1, doc.ID)
	assert.NoError(t, err)
}

func TestDelete_RegistryFailureSurfacesDrift(t *testing.T) {
	t.Parallel()

	repo := newFakeDocRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, 0)

	doc, err := svc.Upload(context.Background(), 1, "report.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)

	repo.deleteErr = errors.New("db down")
	err = svc.Delete(context.Background(), 1, doc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), doc.StorageKey)
}

func TestDelete_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeDocRepo(), newFakeStore(), 0)
	err := svc.Delete(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_InsertionOrderAndOwnership(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeDocRepo(), newFakeStore(), 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Upload(context.Background(), 1, fmt.Sprintf("doc-%d.pdf", i), "application/pdf", pdfBytes)
		require.NoError(t, err)
	}
	_, err := svc.Upload(context.Background(), 2, "other.pdf", "application/pdf", pdfBytes)
	require.NoError(t, err)

	docs, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, fmt.Sprintf("doc-%d.pdf", i), doc.Title)
	}

	other, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "other.pdf", other[0].Title)
}
