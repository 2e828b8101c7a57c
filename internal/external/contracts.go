// Package external holds the contract-only collaborators spec §6 places
// outside this service's scope: token verification, document decoding and
// export rendering. Each contract has a small implementation here:
// JWTAuthenticator for tokens, PlainTextDecoder for UTF-8 text uploads and
// PlainExportRenderer for plain-text exports. The handler layer depends
// only on the interfaces, so a richer decoder or renderer (PDF and other
// file formats) can be wired in without changing it.
package external

import "context"

// DocumentDecoder turns uploaded bytes into named text sections, one per
// extracted source (e.g. a PDF's pages, a zip's member files). It raises
// apperrors.Unsupported for a filename/content-type it cannot handle.
type DocumentDecoder interface {
	Decode(ctx context.Context, content []byte, filename string) (map[string]string, error)
}

// ExportFormat is one of the formats ExportRenderer accepts.
type ExportFormat string

const (
	ExportFormatText ExportFormat = "txt"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatJSON ExportFormat = "json"
)

// ExportRenderer serializes a conversation's active branch into a
// downloadable artifact. Rendering internals (PDF layout, etc.) are
// explicitly out of scope per spec §1; this is a contract boundary only.
type ExportRenderer interface {
	Render(ctx context.Context, messages []ExportMessage, format ExportFormat) ([]byte, error)
}

// ExportMessage is the renderer-facing projection of a types.ChatMessage.
type ExportMessage struct {
	Role    string
	Content string
}

// Authenticator verifies a bearer token and returns the owning user id.
// Failure maps to HTTP 401 at the handler boundary.
type Authenticator interface {
	Verify(ctx context.Context, token string) (string, error)
}
