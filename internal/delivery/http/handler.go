package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/logging"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// PriceResolver is the use case behind the predict endpoints
type PriceResolver interface {
	ResolvePrice(ctx context.Context, request *domain.ItemDescriptor) (*domain.ResolutionResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	prices PriceResolver
}

// NewHandler creates a new HTTP handler. A nil resolver makes the predict endpoints answer 503.
func NewHandler(prices PriceResolver) *Handler {
	return &Handler{prices: prices}
}

// PredictRequest is the body of a price prediction request.
// "state" is the legacy name of "condition"; one of the two is required.
type PredictRequest struct {
	Type      string `json:"type" binding:"required"`
	Color     string `json:"color" binding:"required"`
	Brand     string `json:"brand" binding:"required"`
	Material  string `json:"material" binding:"required"`
	Style     string `json:"style" binding:"required"`
	Condition string `json:"condition" binding:"required_without=State"`
	State     string `json:"state" binding:"required_without=Condition"`
}

func (r PredictRequest) descriptor() *domain.ItemDescriptor {
	condition := r.Condition
	if condition == "" {
		condition = r.State
	}
	return &domain.ItemDescriptor{
		Type:      r.Type,
		Color:     r.Color,
		Brand:     r.Brand,
		Material:  r.Material,
		Style:     r.Style,
		Condition: condition,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": Version,
	})
}

// PredictPrice resolves a price and marketplace links for one item.
// A resolution that produced no price still answers 200 with the error field set.
func (h *Handler) PredictPrice(c *gin.Context) {
	if h.prices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price resolution is not available"})
		return
	}

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.prices.ResolvePrice(c.Request.Context(), req.descriptor())
	if err != nil && result == nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Price resolution failed without a result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, result)
}
