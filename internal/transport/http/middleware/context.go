package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDHeader carries the correlation id across service boundaries.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key holding the trace id.
	TraceIDKey = "trace_id"
	// AdminIDKey is the gin context key holding the authenticated admin id.
	AdminIDKey = "admin_id"
	// AdminKey is the gin context key holding the authenticated admin record.
	AdminKey = "admin"

	requestContextKey = "request_context"
)

// RequestContext collects the per-request facts downstream handlers and the
// access log care about. The auth middleware fills AdminID in once the
// session token checks out.
type RequestContext struct {
	TraceID   string
	AdminID   string
	IP        string
	UserAgent string
}

// EnrichContext seeds every request with a trace id and a RequestContext.
// Inbound X-Trace-ID values are honored so callers can stitch logs together.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" before EnrichContext ran.
func GetTraceID(c *gin.Context) string {
	id, _ := c.Value(TraceIDKey).(string)
	return id
}

// GetRequestContext never returns nil; requests that skipped EnrichContext
// get an empty value.
func GetRequestContext(c *gin.Context) *RequestContext {
	if reqCtx, ok := c.Value(requestContextKey).(*RequestContext); ok {
		return reqCtx
	}
	return &RequestContext{}
}
