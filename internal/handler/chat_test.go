package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSSEContext() (*sseEmitter, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/chat", nil)
	return &sseEmitter{c: c}, w
}

func TestSSEEmitter_HeadersNotWrittenUntilFirstFrame(t *testing.T) {
	emit, w := newSSEContext()

	assert.False(t, emit.c.Writer.Written())
	assert.Empty(t, w.Header().Get("Content-Type"))
}

func TestSSEEmitter_FirstFrameWritesHeadersOnce(t *testing.T) {
	emit, w := newSSEContext()

	require.NoError(t, emit.Token("hello"))
	assert.True(t, emit.c.Writer.Written())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"type":"token"`)

	require.NoError(t, emit.Token("world"))
	assert.Equal(t, 200, w.Code)
}

func TestSSEEmitter_FramesAreNewlineDelimitedSSE(t *testing.T) {
	emit, w := newSSEContext()

	require.NoError(t, emit.Meta([]string{"a.txt"}, nil, 1, nil))
	require.NoError(t, emit.Done(2, "final answer", false))

	body := w.Body.String()
	assert.Contains(t, body, "data: {")
	assert.Contains(t, body, "\n\n")
	assert.Contains(t, body, `"type":"meta"`)
	assert.Contains(t, body, `"type":"done"`)
}

func TestSSEEmitter_ErrorFrameIncludesMessage(t *testing.T) {
	emit, w := newSSEContext()

	require.NoError(t, emit.Error("boom"))
	assert.Contains(t, w.Body.String(), `"message":"boom"`)
}
