package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/recordledger/internal/handler"
	"github.com/jmerrifield20/recordledger/internal/identity"
)

func setupLimitedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	lctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := gin.New()
	r.Use(identity.Authenticate(identity.AuthOptions{AllowCreatorHeader: true}))
	r.Use(handler.RateLimiter(lctx, 1, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func ping(r *gin.Engine, creator string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(identity.CreatorHeader, creator)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_burstThen429(t *testing.T) {
	router := setupLimitedRouter(t)
	org1 := creatorHeader("Org1MSP")

	for i := 0; i < 2; i++ {
		if code := ping(router, org1); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, code)
		}
	}
	if code := ping(router, org1); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
}

func TestRateLimiter_bucketsPerCaller(t *testing.T) {
	router := setupLimitedRouter(t)
	org1, org2 := creatorHeader("Org1MSP"), creatorHeader("Org2MSP")

	for i := 0; i < 3; i++ {
		ping(router, org1)
	}
	if code := ping(router, org2); code != http.StatusNoContent {
		t.Errorf("another caller from the same IP should have its own bucket, got %d", code)
	}
}
