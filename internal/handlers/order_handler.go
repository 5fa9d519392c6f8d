// Package handlers exposes the storefront and staff boundaries over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/services"
)

// OrderHandler serves order lookup requests.
type OrderHandler struct {
	lookup *services.OrderLookupService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(lookup *services.OrderLookupService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{lookup: lookup, logger: logger}
}

// LookupOrdersRequest is the storefront lookup payload.
type LookupOrdersRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// LookupOrders matches a phone number to its order history with eligibility
// annotations.
// POST /api/v1/storefront/orders/lookup
func (h *OrderHandler) LookupOrders(c *gin.Context) {
	var req LookupOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number is required"})
		return
	}

	orders, err := h.lookup.FindOrders(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		h.logger.Error("order lookup failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderByNumber fetches one order for the staff dashboard.
// GET /api/v1/admin/orders/:number
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	order, err := h.lookup.FindOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.logger.Error("order fetch failed",
			zap.String("order_number", c.Param("number")),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// respondError maps domain errors to HTTP statuses. Business failures from
// a live upstream carry the raw upstream message for operator diagnosis.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, returns.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, returns.ErrRequestNotFound):
		status = http.StatusNotFound
	case returns.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, returns.ErrUpstreamTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, returns.ErrUpstreamUnavailable),
		errors.Is(err, returns.ErrNoCourierAvailable),
		errors.Is(err, returns.ErrCarrierOrderFailed),
		errors.Is(err, returns.ErrCarrierLabelFailed):
		status = http.StatusBadGateway
	case errors.Is(err, returns.ErrNoShipment):
		status = http.StatusUnprocessableEntity
	}

	resp := gin.H{"error": err.Error()}
	if raw := returns.UpstreamMessage(err); raw != "" {
		resp["upstream"] = raw
	}
	c.JSON(status, resp)
}
