package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Parsing errors
var (
	ErrEmptyDocument       = errors.New("document content is empty")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrBinaryContent       = errors.New("document content is not valid text")
)

// supported plain-text extensions
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".text": true,
	".json": true,
	".csv":  true,
}

// ParsedDocument is the output of the document parsing stage.
type ParsedDocument struct {
	Text     string `json:"text"`
	FullText string `json:"full_text"`
	FileType string `json:"file_type"`
	Filename string `json:"filename"`
}

// DocumentParser turns an uploaded file into text the extraction stage can
// work with. Only plain-text formats are supported; binary formats fail the
// stage rather than producing garbage downstream.
type DocumentParser struct {
	logger *slog.Logger
}

func NewDocumentParser(logger *slog.Logger) *DocumentParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentParser{logger: logger.With(slog.String("component", "document_parser"))}
}

// Parse extracts text from the uploaded file content.
func (p *DocumentParser) Parse(ctx context.Context, content []byte, filename string) (*ParsedDocument, error) {
	if len(content) == 0 {
		return nil, ErrEmptyDocument
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !textExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	if !utf8.Valid(content) {
		return nil, ErrBinaryContent
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, ErrEmptyDocument
	}

	p.logger.InfoContext(ctx, "document parsed",
		slog.String("filename", filename),
		slog.Int("bytes", len(content)))

	return &ParsedDocument{
		Text:     text,
		FullText: text,
		FileType: strings.TrimPrefix(ext, "."),
		Filename: filename,
	}, nil
}
