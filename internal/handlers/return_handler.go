package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/middleware"
	"github.com/satmi-commerce/service-returns/internal/models"
	"github.com/satmi-commerce/service-returns/internal/services"
)

// ReturnHandler serves the return request lifecycle.
type ReturnHandler struct {
	service *services.ReturnService
	logger  *zap.Logger
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(service *services.ReturnService, logger *zap.Logger) *ReturnHandler {
	return &ReturnHandler{service: service, logger: logger}
}

// SubmitReturnRequest is the customer submission payload.
type SubmitReturnRequest struct {
	OrderID      string              `json:"order_id" binding:"required"`
	CustomerName string              `json:"customer_name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Pincode      string              `json:"pincode"`
	Items        []models.ReturnItem `json:"items" binding:"required"`
	Reason       string              `json:"reason"`
	Comments     string              `json:"comments"`
	VideoURL     string              `json:"video_url" binding:"required"`
}

// Submit creates a new Pending return request.
// POST /api/v1/storefront/returns
func (h *ReturnHandler) Submit(c *gin.Context) {
	var req SubmitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id, items and video_url are required"})
		return
	}

	created, err := h.service.Submit(c.Request.Context(), services.SubmitReturnInput{
		OrderID:      req.OrderID,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Pincode:      req.Pincode,
		Items:        req.Items,
		Reason:       req.Reason,
		Comments:     req.Comments,
		VideoURL:     req.VideoURL,
	})
	if err != nil {
		h.logger.Error("return submission failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": created})
}

// List fetches return requests for the dashboard.
// GET /api/v1/admin/returns?status=Pending&page=1&page_size=20
func (h *ReturnHandler) List(c *gin.Context) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.Query("page_size")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}

	reqs, total, counts, err := h.service.List(c.Request.Context(), c.Query("status"), pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger.Error("return list failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": reqs,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"stats": gin.H{
			"pending":  counts[models.StatusPending],
			"approved": counts[models.StatusApproved],
			"rejected": counts[models.StatusRejected],
		},
	})
}

// Get fetches one return request.
// GET /api/v1/admin/returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// ApproveReturnRequest is the optional approve payload.
type ApproveReturnRequest struct {
	PickupPincode string `json:"pickup_pincode"`
}

// Approve decides a Pending request and books the reverse shipment.
// POST /api/v1/admin/returns/:id/approve
func (h *ReturnHandler) Approve(c *gin.Context) {
	var req ApproveReturnRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	reviewer := c.GetString(middleware.ContextStaffEmail)
	updated, err := h.service.Approve(c.Request.Context(), c.Param("id"), reviewer, req.PickupPincode)
	if err != nil {
		h.logger.Error("return approval failed",
			zap.String("request_id", c.Param("id")),
			zap.String("reviewer", reviewer),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": updated})
}

// RejectReturnRequest is the optional reject payload.
type RejectReturnRequest struct {
	Reason string `json:"reason"`
}

// Reject decides a Pending request without side effects.
// POST /api/v1/admin/returns/:id/reject
func (h *ReturnHandler) Reject(c *gin.Context) {
	var req RejectReturnRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	reviewer := c.GetString(middleware.ContextStaffEmail)
	updated, err := h.service.Reject(c.Request.Context(), c.Param("id"), reviewer, req.Reason)
	if err != nil {
		h.logger.Error("return rejection failed",
			zap.String("request_id", c.Param("id")),
			zap.String("reviewer", reviewer),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": updated})
}

// FetchLabel fetches (and caches) the shipment label of an approved request.
// POST /api/v1/admin/returns/:id/label
func (h *ReturnHandler) FetchLabel(c *gin.Context) {
	updated, err := h.service.FetchLabel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("label fetch failed",
			zap.String("request_id", c.Param("id")),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request":   updated,
		"label_url": updated.LabelURL,
	})
}
