package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
)

// PlainExportRenderer renders the txt and json formats directly; pdf
// rendering needs a layout engine this codebase's dependency set has no
// equivalent of (no PDF library appears anywhere in the retrieved
// examples), so it is left as ProviderError rather than faked.
type PlainExportRenderer struct{}

func NewPlainExportRenderer() *PlainExportRenderer { return &PlainExportRenderer{} }

func (r *PlainExportRenderer) Render(ctx context.Context, messages []ExportMessage, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return json.Marshal(messages)
	case ExportFormatText:
		var b strings.Builder
		for _, m := range messages {
			fmt.Fprintf(&b, "[%s] %s\n\n", m.Role, m.Content)
		}
		return []byte(b.String()), nil
	case ExportFormatPDF:
		return nil, apperrors.NewProviderError("pdf export is not available in this deployment", nil)
	default:
		return nil, apperrors.NewUnsupportedError("unsupported export format: " + string(format))
	}
}
