package external

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
)

// PlainTextDecoder is the concrete DocumentDecoder this service ships:
// it handles the formats that need no external parser (.txt, .md, .csv,
// .log) and raises Unsupported for everything else. PDF/DOCX extraction
// (as the original Python service did via pypdf/python-docx) has no
// equivalent library in this codebase's dependency set and is left as an
// external collaborator a deployment can plug in.
type PlainTextDecoder struct{}

func NewPlainTextDecoder() *PlainTextDecoder { return &PlainTextDecoder{} }

var plainTextExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".csv": {}, ".log": {},
}

func (d *PlainTextDecoder) Decode(ctx context.Context, content []byte, filename string) (map[string]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := plainTextExtensions[ext]; !ok {
		return nil, apperrors.NewUnsupportedError("unsupported file type: " + ext)
	}
	if !utf8.Valid(content) {
		return nil, apperrors.NewUnsupportedError("file is not valid UTF-8 text")
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, apperrors.NewNoContentError("file contains no extractable text")
	}
	return map[string]string{filename: text}, nil
}
