package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"study-room/internal/middleware"
	"study-room/internal/repository/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRateLimitedRouter(stateRepo *mocks.StateRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RateLimit(stateRepo, 100, time.Second))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router
}

func TestRateLimit_UnderLimitPassesThrough(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	mockStateRepo.On("CheckRateLimit", mock.Anything, mock.Anything, 100, time.Second).
		Return(false, nil).
		Once()
	router := newRateLimitedRouter(mockStateRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockStateRepo.AssertExpectations(t)
}

func TestRateLimit_OverLimitRejected(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	mockStateRepo.On("CheckRateLimit", mock.Anything, mock.Anything, 100, time.Second).
		Return(true, nil).
		Once()
	router := newRateLimitedRouter(mockStateRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	mockStateRepo.AssertExpectations(t)
}

func TestRateLimit_StateStoreErrorIs500(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	mockStateRepo.On("CheckRateLimit", mock.Anything, mock.Anything, 100, time.Second).
		Return(false, assert.AnError).
		Once()
	router := newRateLimitedRouter(mockStateRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockStateRepo.AssertExpectations(t)
}
