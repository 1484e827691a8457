package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/recordledger/internal/handler"
	"github.com/jmerrifield20/recordledger/internal/health"
	"go.uber.org/zap"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var down bool
	checker := health.New([]health.Probe{{
		Name: "state",
		Check: func(context.Context) error {
			if down {
				return errors.New("connection refused")
			}
			return nil
		},
	}}, health.Config{FailThreshold: 1}, zap.NewNop())

	r := gin.New()
	r.GET("/healthz", handler.HealthHandler(checker, "test"))

	checker.CheckAll(ctx)
	if w := get(r, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	down = true
	checker.CheckAll(ctx)
	if w := get(r, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}
