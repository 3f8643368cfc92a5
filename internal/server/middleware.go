package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/asynkron/codezap/internal/core/logging"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an id, reusing a valid incoming one, and
// stores it as the logger trace id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), id))
		c.Next()
	}
}

// cors allows the browser front end to call the API from any origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// recordResponse counts the final status of every request on the route,
// including ones rejected by later middleware.
func recordResponse(metrics Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.RecordResponse(c.Writer.Status())
	}
}

func accessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request handled",
			logging.Field("method", c.Request.Method),
			logging.Field("path", c.FullPath()),
			logging.Field("status", c.Writer.Status()),
			logging.Field("duration", time.Since(started).Round(time.Millisecond)))
	}
}
