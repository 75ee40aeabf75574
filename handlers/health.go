package handlers

import (
	"net/http"

	"tourbooking/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the latest dependency probe results.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	label := "ok"
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		label = "degraded"
	}
	c.JSON(code, gin.H{"status": label, "services": status.Services, "checkedAt": status.CheckedAt})
}
