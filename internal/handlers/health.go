package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/importusers/import-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string     `json:"status"`
	Store    string     `json:"store"`
	Database string     `json:"database"`
	Pool     *PoolStats `json:"pool,omitempty"`
}

// PoolStats reports Postgres connection pool usage
type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

// HealthCheck returns a handler reporting the entity store backend and,
// for Postgres, the connection state
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(storeType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status: "ok",
			Store:  storeType,
		}

		if database.Pool() == nil {
			response.Database = "not configured"
			c.JSON(http.StatusOK, response)
			return
		}

		if err := database.Status(c.Request.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
		if stat := database.Stats(); stat != nil {
			response.Pool = &PoolStats{
				Total:    stat.TotalConns(),
				Idle:     stat.IdleConns(),
				Acquired: stat.AcquiredConns(),
				Max:      stat.MaxConns(),
			}
		}
		c.JSON(http.StatusOK, response)
	}
}
