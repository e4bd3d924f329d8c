package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxIDLength bounds caller-supplied ids; longer ones are replaced.
const maxIDLength = 128

type idMiddlewareConfig struct {
	headerName      string
	contextKey      string
	contextEnricher func(ctx context.Context, id string) context.Context
	contextStorer   func(ctx context.Context, id string) context.Context
}

func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.headerName)
		if id == "" || len(id) > maxIDLength {
			id = uuid.New().String()
		}

		c.Set(cfg.contextKey, id)
		c.Header(cfg.headerName, id)

		ctx := c.Request.Context()
		if cfg.contextEnricher != nil {
			ctx = cfg.contextEnricher(ctx, id)
		}

		if cfg.contextStorer != nil {
			ctx = cfg.contextStorer(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func getIDFromContext(c *gin.Context, key string) string {
	if id, exists := c.Get(key); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}

	return ""
}
