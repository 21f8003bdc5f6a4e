package factmetrics

import (
	"net/http"
	"strings"

	"admetrics/internal/pkg/response"
	"admetrics/internal/pkg/validator"
	"admetrics/internal/probe"

	"github.com/gin-gonic/gin"
)

// AdvertisementHeader carries the advertisement id on the conversion route.
const AdvertisementHeader = "advertisement_id"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterOptionalAuthRoutes mounts routes that accept guests.
func (h *Handler) RegisterOptionalAuthRoutes(r gin.IRoutes) {
	r.POST("/create/fact-ad-matrics/", h.ToggleLike)
}

func (h *Handler) RegisterProtectedRoutes(r gin.IRoutes) {
	r.GET("/", h.RecordConversion)
	r.GET("/fact-ad-metrics/", h.List)
}

func (h *Handler) ToggleLike(c *gin.Context) {
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	row, err := h.service.ToggleLike(c.Request.Context(), callerFrom(c), strings.TrimSpace(req.AdvertiseID), req.Likes)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, row)
}

// RecordConversion handles a visit to the buy link. Each visit counts as a
// conversion and one click.
func (h *Handler) RecordConversion(c *gin.Context) {
	adID := strings.TrimSpace(c.GetHeader(AdvertisementHeader))
	if adID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "advertisement_id header is required")
		return
	}

	row, err := h.service.RecordConversion(c.Request.Context(), callerFrom(c), adID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, row)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fields := validator.Fields(err)
		message := "Invalid query parameters"
		switch {
		case fields["start_date"] != "":
			message = ErrInvalidStartDate.Message
		case fields["end_date"] != "":
			message = ErrInvalidEndDate.Message
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", message, fields)
		return
	}

	rows, err := h.service.List(c.Request.Context(), q.filter())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rows)
}

func callerFrom(c *gin.Context) Caller {
	return Caller{
		UserID: c.GetString("user_id"),
		Client: probe.Client{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	}
}
