// Package middleware provides the gin middleware chain of the HTTP adapter.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/verse-service/internal/platform/logging"
)

const (
	// HeaderRequestID carries the per-request id.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID carries the id of the whole caller transaction and
	// is forwarded to the dataset host unchanged.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin.Context key of the request id.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin.Context key of the correlation id.
	ContextKeyCorrelationID = "correlation_id"
)

// RequestID reads X-Request-ID or generates a UUID, echoes it in the
// response and tags the request logger with it.
func RequestID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName:      HeaderRequestID,
		contextKey:      ContextKeyRequestID,
		contextEnricher: logging.WithRequestID,
		contextStorer:   ContextWithRequestID,
	})
}

// CorrelationID works like RequestID for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName:      HeaderCorrelationID,
		contextKey:      ContextKeyCorrelationID,
		contextEnricher: logging.WithCorrelationID,
		contextStorer:   ContextWithCorrelationID,
	})
}

// GetRequestID returns the request id, or "" outside the middleware.
func GetRequestID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id, or "" outside the middleware.
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}
