package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cinsua/masirep-sub002/internal/infra"
	"github.com/cinsua/masirep-sub002/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The SMTP breaker state and the parked alert jobs are informative only and
// do not turn the check red.
func Health(db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}
		healthy := dbStatus == "connected"

		if rdb == nil {
			body["redis"] = "disabled"
		} else {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
				healthy = false
			}
			body["redis"] = redisStatus
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueAlertas); err == nil {
				body["dlq_alertas"] = n
			}
		}

		if smtpCB != nil {
			body["smtp"] = smtpCB.State().String()
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = healthy
		c.JSON(status, body)
	}
}
