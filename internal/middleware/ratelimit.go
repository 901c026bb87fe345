package middleware

import (
	"net/http"
	"time"

	"study-room/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit returns a middleware limiting requests per client IP using
// the shared state store's counter.
func RateLimit(stateRepo repository.StateRepository, maxRequests int, window time.Duration) gin.HandlerFunc {
	if stateRepo == nil {
		panic("StateRepository cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		exceeded, err := stateRepo.CheckRateLimit(c.Request.Context(), key, maxRequests, window)
		if err != nil {
			logrus.WithError(err).Error("RateLimit: state store check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting error"})
			c.Abort()
			return
		}

		if exceeded {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}
