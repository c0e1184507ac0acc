package middleware

import (
	"net/http" // HTTP status codes
	"time"     // Request durations

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request IDs
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// ContextRequestID is the gin context key holding the request ID
const ContextRequestID = "requestID"

// RequestLogger tags every request with an ID and logs its outcome
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		start := time.Now()
		c.Next()
		fields := logrus.Fields{
			"request_id": requestID,          // Correlation ID
			"method":     c.Request.Method,   // HTTP method
			"path":       c.Request.URL.Path, // Request path
			"status":     c.Writer.Status(),  // Response status
			"duration":   time.Since(start),  // Handling time
			"client_ip":  c.ClientIP(),       // Caller address
		}
		if userID, _, ok := CurrentUser(c); ok {
			fields["user_id"] = userID
		}
		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("HTTP request")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}

// Recovery turns a panicking handler into a 500 JSON response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithFields(logrus.Fields{
					"request_id": c.GetString(ContextRequestID), // Correlation ID
					"path":       c.Request.URL.Path,            // Request path
					"panic":      err,                           // Recovered value
				}).Error("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}
