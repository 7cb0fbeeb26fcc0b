package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/relief/internal/logger"
	"github.com/stwalsh4118/relief/internal/middleware"
)

// Recovery turns a handler panic into the standard 500 envelope.
// log is used when no request logger was attached by middleware.Logger.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		if middleware.GetLogger(c) == nil && log != nil {
			c.Set(middleware.LoggerKey, log)
		}

		err := fmt.Errorf("panic: %v\n%s", recovered, debug.Stack())
		InternalServerError(c, "An unexpected error occurred", err)
		c.Abort()
	})
}
