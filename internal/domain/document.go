package domain

import "time"

// Document represents a PDF uploaded by a user. StorageKey and URL are fixed
// at upload time; only Title may change afterwards.
type Document struct {
	ID         int64
	UserID     int64
	Title      string
	URL        string
	StorageKey string
	Bytes      int64
	Pages      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
