package errors

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sourabsb/doctalk/internal/logger"
)

// GinMiddleware centralizes error-to-response translation: handlers call
// c.Error(err) and return; this middleware runs after the handler chain
// and writes the JSON body exactly once, using AppError.HTTPStatus when
// present and falling back to 500 for anything else.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := As(err)
		if !ok {
			appErr = Wrap(KindInternal, "internal server error", err)
		}

		logger.ErrorWithFields(c.Request.Context(), appErr, map[string]any{
			"kind": string(appErr.Kind),
			"path": c.Request.URL.Path,
		})

		c.JSON(appErr.HTTPStatus(), gin.H{
			"error": gin.H{
				"kind":    appErr.Kind,
				"message": appErr.Message,
			},
		})
	}
}

// RequestID seeds a per-request logger context, following the teacher's
// logger.CloneContext convention for handlers that spawn background work.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logger.WithContext(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}
