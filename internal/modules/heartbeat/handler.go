package heartbeat

import (
	"net/http"

	"admetrics/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	scheduler *Scheduler
}

func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/cron-status", h.Status)
}

func (h *Handler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.scheduler.Status())
}
