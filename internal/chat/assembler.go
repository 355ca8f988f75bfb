// Package chat assembles the document context handed to an answer generator:
// it resolves a document, fetches its stored bytes, extracts the text, and
// bounds it to a fixed character budget.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdfmind/internal/pdf"
	"pdfmind/internal/service"
)

const (
	// DefaultCharLimit bounds the extracted text handed downstream.
	DefaultCharLimit = 8000
	// PreviewLimit bounds the preview returned when no answer provider is wired.
	PreviewLimit = 300

	defaultFetchTimeout  = 30 * time.Second
	defaultMaxFetchBytes = 32 << 20
)

var (
	// ErrInvalidSource indicates the storage URL did not serve a PDF payload.
	ErrInvalidSource = errors.New("stored URL does not point to a valid PDF")
	// ErrUpstream indicates the answer provider failed.
	ErrUpstream = errors.New("answer provider failed")
)

// Answerer generates an answer from extracted document text and a question.
// The provider is external; no retries are performed on failure.
type Answerer interface {
	GenerateAnswer(ctx context.Context, documentText, question string) (string, error)
}

// Result is the outcome of asking a question about a document. Answer is set
// when an answer provider is wired; otherwise Preview carries the head of the
// extracted text.
type Result struct {
	Answer  string
	Preview string
}

// Options tunes the assembler. Zero values fall back to defaults.
type Options struct {
	CharLimit     int
	FetchTimeout  time.Duration
	MaxFetchBytes int64
	// Extract overrides text extraction; defaults to pdf.ExtractText.
	Extract func(data []byte, limit int) (string, error)
	// Client performs the storage URL fetch; defaults to a timeout-bound client.
	Client *http.Client
	// Answerer is optional; when nil, Ask returns a text preview only.
	Answerer Answerer
}

// Assembler builds chat context for a user's document.
type Assembler struct {
	docs          service.DocumentService
	client        *http.Client
	charLimit     int
	maxFetchBytes int64
	extract       func(data []byte, limit int) (string, error)
	answerer      Answerer
}

func NewAssembler(docs service.DocumentService, opts Options) *Assembler {
	if opts.CharLimit <= 0 {
		opts.CharLimit = DefaultCharLimit
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxFetchBytes <= 0 {
		opts.MaxFetchBytes = defaultMaxFetchBytes
	}
	if opts.Extract == nil {
		opts.Extract = pdf.ExtractText
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.FetchTimeout}
	}
	return &Assembler{
		docs:          docs,
		client:        opts.Client,
		charLimit:     opts.CharLimit,
		maxFetchBytes: opts.MaxFetchBytes,
		extract:       opts.Extract,
		answerer:      opts.Answerer,
	}
}

// BuildContext resolves the document (scoped to its owner), fetches the
// stored bytes, and returns the extracted text truncated to the character
// budget.
func (a *Assembler) BuildContext(ctx context.Context, userID, docID int64) (string, error) {
	doc, err := a.docs.Get(ctx, userID, docID)
	if err != nil {
		return "", err
	}

	data, err := a.fetch(ctx, doc.URL)
	if err != nil {
		return "", err
	}

	text, err := a.extract(data, a.charLimit)
	if err != nil {
		return "", fmt.Errorf("extract document text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "No text extracted from PDF.", nil
	}
	return text, nil
}

// Ask builds the document context and, when an answer provider is wired,
// forwards it together with the question. Without a provider it returns a
// preview of the extracted text.
func (a *Assembler) Ask(ctx context.Context, userID, docID int64, question string) (Result, error) {
	text, err := a.BuildContext(ctx, userID, docID)
	if err != nil {
		return Result{}, err
	}

	if a.answerer == nil {
		return Result{Preview: pdf.Truncate(text, PreviewLimit)}, nil
	}

	answer, err := a.answerer.GenerateAnswer(ctx, text, question)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return Result{Answer: answer}, nil
}

func (a *Assembler) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document: unexpected status %s", resp.Status)
	}
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/pdf") {
		return nil, ErrInvalidSource
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read document body: %w", err)
	}
	return data, nil
}
