package auth

import (
	"errors"
	"net/http"

	"admetrics/internal/pkg/response"
	"admetrics/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

const tokenTypeBearer = "bearer"

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.POST("/users/", h.Register)
	r.POST("/login-user/", h.Login)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fields := validator.Fields(err)
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", validationError(fields).Message, fields)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", ErrInvalidRequest.Message, validator.Fields(err))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(result.ExpiresIn.Seconds()),
	})
}
