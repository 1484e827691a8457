package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/recordledger/internal/health"
)

// HealthHandler serves GET /healthz from the dependency checker.
func HealthHandler(checker *health.Checker, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, ok := checker.Snapshot()
		status, code := "ok", http.StatusOK
		if !ok {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": version,
			"probes":  reports,
		})
	}
}
