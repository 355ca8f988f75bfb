package storage

import (
	"context"
	"io"
)

// StoredObject describes an object written to remote storage. Key is the
// opaque identifier used for later deletion; URL is where the bytes can be
// fetched from.
type StoredObject struct {
	Key string
	URL string
}

// Config conveys upload destination metadata. The adapter is constructed with
// it explicitly rather than reading ambient SDK globals.
type Config struct {
	Bucket    string
	KeyPrefix string
	// PublicBaseURL, when set, is joined with the object key to produce
	// retrieval URLs. Otherwise a presigned URL is generated.
	PublicBaseURL string
	PresignTTL    int // seconds; 0 means the implementation default
}

// Service stores uploaded documents in remote object storage.
type Service interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (StoredObject, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
