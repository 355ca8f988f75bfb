// Package pdf wraps best-effort page counting and text extraction for
// uploaded documents.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the payload looks like a PDF. Both the declared
// content type and the leading magic bytes must agree, so a spoofed
// content type or a renamed file is rejected either way.
func IsPDF(contentType string, data []byte) bool {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt != "" && mt != "application/pdf" {
		return false
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// PageCount returns the number of pages in the document, or zero when the
// bytes cannot be parsed. Extraction failures never propagate; a broken PDF
// still uploads with a zero page count.
func PageCount(data []byte) (pages int) {
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	n := reader.NumPage()
	if n < 0 {
		return 0
	}
	return n
}

// ExtractText returns the plain text content of the document, truncated to at
// most limit characters (no truncation when limit <= 0).
func ExtractText(data []byte, limit int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	return Truncate(buf.String(), limit), nil
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
