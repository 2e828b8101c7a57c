package external

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
)

func TestPlainTextDecoder_DecodesPlainText(t *testing.T) {
	d := NewPlainTextDecoder()

	sections, err := d.Decode(context.Background(), []byte("hello world"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", sections["notes.txt"])
}

func TestPlainTextDecoder_RejectsUnsupportedExtension(t *testing.T) {
	d := NewPlainTextDecoder()

	_, err := d.Decode(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindUnsupported, appErr.Kind)
}

func TestPlainTextDecoder_RejectsNonUTF8(t *testing.T) {
	d := NewPlainTextDecoder()

	_, err := d.Decode(context.Background(), []byte{0xff, 0xfe, 0x00}, "notes.txt")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindUnsupported, appErr.Kind)
}

func TestPlainTextDecoder_RejectsEmptyContent(t *testing.T) {
	d := NewPlainTextDecoder()

	_, err := d.Decode(context.Background(), []byte("   \n  "), "notes.txt")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindNoContent, appErr.Kind)
}
