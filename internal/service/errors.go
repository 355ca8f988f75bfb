package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when signing up with an email that is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrNotFound indicates the requested user or document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFile is returned when an upload is not a PDF.
	ErrInvalidFile = errors.New("only PDF files are allowed")
	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
)
