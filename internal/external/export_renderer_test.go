package external

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainExportRenderer_RendersJSON(t *testing.T) {
	r := NewPlainExportRenderer()
	messages := []ExportMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}

	out, err := r.Render(context.Background(), messages, ExportFormatJSON)
	require.NoError(t, err)

	var decoded []ExportMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, messages, decoded)
}

func TestPlainExportRenderer_RendersText(t *testing.T) {
	r := NewPlainExportRenderer()
	messages := []ExportMessage{{Role: "user", Content: "hi"}}

	out, err := r.Render(context.Background(), messages, ExportFormatText)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[user] hi")
}

func TestPlainExportRenderer_PDFIsUnavailable(t *testing.T) {
	r := NewPlainExportRenderer()

	_, err := r.Render(context.Background(), nil, ExportFormatPDF)
	assert.Error(t, err)
}

func TestPlainExportRenderer_RejectsUnknownFormat(t *testing.T) {
	r := NewPlainExportRenderer()

	_, err := r.Render(context.Background(), nil, ExportFormat("xml"))
	assert.Error(t, err)
}
