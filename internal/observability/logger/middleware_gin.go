package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/pricewise/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDHeader = "X-Request-Id"
	clientIDHeader  = "X-Client-Id"

	// Longer caller-supplied request ids are replaced rather than logged.
	maxRequestIDLen = 128

	annotationsKey = "logger.annotations"
)

// MiddlewareConfig controls the access log.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps a handler error to the error_type and error_code fields.
	ErrorClassifier func(err error) (string, string)
}

// Annotate adds fields to the access log line of the current request.
// Pricing handlers use it to record what was calculated.
func Annotate(c *gin.Context, fields ...zap.Field) {
	if c == nil || len(fields) == 0 {
		return
	}
	var current []zap.Field
	if v, ok := c.Get(annotationsKey); ok {
		current, _ = v.([]zap.Field)
	}
	c.Set(annotationsKey, append(current, fields...))
}

// GinMiddleware tags the request with a request id and a client id, then
// writes one http_request entry once the handler chain is done.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := requestIDFor(c)
		c.Header(requestIDHeader, requestID)
		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx = obscontext.WithClientID(ctx, clientIDFor(c))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if v, ok := c.Get(annotationsKey); ok {
			if annotations, ok := v.([]zap.Field); ok {
				fields = append(fields, annotations...)
			}
		}
		if last := c.Errors.Last(); last != nil && cfg.ErrorClassifier != nil {
			errorType, errorCode := cfg.ErrorClassifier(last.Err)
			fields = append(fields, zap.String("error_type", errorType), zap.String("error_code", errorCode))
		}
		if cfg.Debug && status >= http.StatusInternalServerError {
			fields = append(fields, zap.Stack("stack"))
		}

		if ce := FromContext(c.Request.Context()).Check(accessLevel(route, status), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// accessLevel keeps probes and pricing client errors out of the info stream.
// Rejected calculations are counted by the pricing metrics instead.
func accessLevel(route string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case strings.HasPrefix(route, "/api/pricing/") && status >= http.StatusBadRequest:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func requestIDFor(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(requestIDHeader)); id != "" && len(id) <= maxRequestIDLen {
		return id
	}
	return uuid.NewString()
}

// clientIDFor prefers the caller's declared client id over its address.
func clientIDFor(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(clientIDHeader)); id != "" {
		return id
	}
	return c.ClientIP()
}
