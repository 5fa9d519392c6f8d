// Package repository persists return requests.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/models"
)

// ReturnRequestRepository is the gorm-backed return request store.
type ReturnRequestRepository struct {
	db *gorm.DB
}

// NewReturnRequestRepository creates a new ReturnRequestRepository.
func NewReturnRequestRepository(db *gorm.DB) *ReturnRequestRepository {
	return &ReturnRequestRepository{db: db}
}

// Create persists a new request.
func (r *ReturnRequestRepository) Create(ctx context.Context, req *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// FindByID fetches one request.
func (r *ReturnRequestRepository) FindByID(ctx context.Context, id string) (*models.ReturnRequest, error) {
	var req models.ReturnRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, returns.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List fetches requests newest-first, optionally filtered by status.
func (r *ReturnRequestRepository) List(ctx context.Context, status string, limit, offset int) ([]models.ReturnRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []models.ReturnRequest
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// CountByStatus returns the dashboard tallies.
func (r *ReturnRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ApprovalRecord holds the fields written on approval.
type ApprovalRecord struct {
	ShipmentID int64
	AWBCode    string
	Courier    string
	ApprovedBy string
	ApprovedAt time.Time
}

// MarkApproved transitions Pending -> Approved with a conditional update
// keyed on the expected prior status. A zero-row result means the request
// was already decided by another reviewer.
func (r *ReturnRequestRepository) MarkApproved(ctx context.Context, id string, rec ApprovalRecord) error {
	res := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      models.StatusApproved,
			"shipment_id": rec.ShipmentID,
			"awb_code":    rec.AWBCode,
			"courier":     rec.Courier,
			"approved_by": rec.ApprovedBy,
			"approved_at": rec.ApprovedAt,
		})
	return transitionResult(ctx, r.db, id, res)
}

// RejectionRecord holds the fields written on rejection.
type RejectionRecord struct {
	Reason     *string
	RejectedBy string
	RejectedAt time.Time
}

// MarkRejected transitions Pending -> Rejected, conditionally like
// MarkApproved.
func (r *ReturnRequestRepository) MarkRejected(ctx context.Context, id string, rec RejectionRecord) error {
	res := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":           models.StatusRejected,
			"rejection_reason": rec.Reason,
			"rejected_by":      rec.RejectedBy,
			"rejected_at":      rec.RejectedAt,
		})
	return transitionResult(ctx, r.db, id, res)
}

// SetLabelURL stores the fetched label URL on the owning request.
func (r *ReturnRequestRepository) SetLabelURL(ctx context.Context, id, labelURL string) error {
	res := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("id = ?", id).
		Update("label_url", labelURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return returns.ErrRequestNotFound
	}
	return nil
}

func transitionResult(ctx context.Context, db *gorm.DB, id string, res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Distinguish "already decided" from "no such request".
	var count int64
	if err := db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return returns.ErrRequestNotFound
	}
	return returns.ErrInvalidStateTransition
}
