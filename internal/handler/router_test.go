package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Sourabsb/doctalk/internal/external"
)

func newTestContext(paramName, paramValue string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	if paramName != "" {
		c.Params = gin.Params{{Key: paramName, Value: paramValue}}
	}
	return c, w
}

func TestParseInt64Param_ValidInteger(t *testing.T) {
	c, _ := newTestContext("convId", "42")

	v, ok := parseInt64Param(c, "convId")
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestParseInt64Param_RejectsNonInteger(t *testing.T) {
	c, _ := newTestContext("convId", "not-a-number")

	_, ok := parseInt64Param(c, "convId")
	assert.False(t, ok)
}

func TestParseInt64Param_RejectsMissingParam(t *testing.T) {
	c, _ := newTestContext("", "")

	_, ok := parseInt64Param(c, "convId")
	assert.False(t, ok)
}

func TestUserIDFromContext_ReturnsEmptyWhenUnset(t *testing.T) {
	c, _ := newTestContext("", "")
	assert.Equal(t, "", UserIDFromContext(c))
}

func TestUserIDFromContext_ReturnsSetValue(t *testing.T) {
	c, _ := newTestContext("", "")
	c.Set(userIDContextKey, "user-123")
	assert.Equal(t, "user-123", UserIDFromContext(c))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeFor(external.ExportFormatJSON))
	assert.Equal(t, "application/pdf", contentTypeFor(external.ExportFormatPDF))
	assert.Equal(t, "text/plain", contentTypeFor(external.ExportFormatText))
}
