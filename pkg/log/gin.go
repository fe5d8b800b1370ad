package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// GinMiddleware tags every request with an ID, stores a request-scoped
// child logger in the request context, and emits one completion line
// with status, latency, and the authenticated actor when one is set.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := requestID(c)
		c.Header(headerRequestID, reqID)

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		evt := child.Info().
			Int(FieldStatus, c.Writer.Status()).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))
		actorFields(c, evt).Msg("request completed")
	}
}

// requestID honors a caller-supplied X-Request-ID so IDs survive
// proxies, minting one otherwise.
func requestID(c *gin.Context) string {
	if id := c.GetHeader(headerRequestID); id != "" {
		return id
	}
	return uuid.New().String()
}

// actorFields copies the identity keys the auth middleware stores on
// the gin context onto the completion event. They exist only after
// c.Next() has run the handler chain.
func actorFields(c *gin.Context, evt *zerolog.Event) *zerolog.Event {
	for _, key := range []string{FieldUserID, FieldUsername} {
		if v, ok := c.Get(key); ok {
			if s, ok := v.(string); ok {
				evt = evt.Str(key, s)
			}
		}
	}
	return evt
}
