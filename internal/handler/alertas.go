package handler

import (
	"net/http"

	"github.com/cinsua/masirep-sub002/internal/middleware"
	"github.com/cinsua/masirep-sub002/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AlertasHandler exposes the dead letter list of the alert queue.
type AlertasHandler struct{ rdb *redis.Client }

func NewAlertasHandler(rdb *redis.Client) *AlertasHandler { return &AlertasHandler{rdb: rdb} }

// Pendientes reports how many alert jobs are parked.
func (h *AlertasHandler) Pendientes(c *gin.Context) {
	n, err := worker.DLQLength(c.Request.Context(), h.rdb, worker.QueueAlertas)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pendientes": n})
}

// Reencolar moves every parked alert job back to the queue.
func (h *AlertasHandler) Reencolar(c *gin.Context) {
	n, err := worker.ReencolarDLQ(c.Request.Context(), h.rdb, worker.QueueAlertas)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int("reencolados", n).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("alertas: dlq reencolada")
	c.JSON(http.StatusOK, gin.H{"reencolados": n})
}
