package server

import (
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID echoes the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		id, _ := c.Get("request_id")
		if len(c.Errors) > 0 {
			logger.Error("[%v] %s %s -> %d (%s): %s", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.Errors.String())
			return
		}
		logger.Info("[%v] %s %s -> %d (%s)", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Recovered from panic: %v", recovered)
		c.AbortWithStatusJSON(500, gin.H{"error": "Internal server error"})
	})
}
