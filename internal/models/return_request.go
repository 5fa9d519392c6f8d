// Package models holds the persisted entities of the returns service.
package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Return request statuses. Transitions are one-way and terminal:
// Pending -> Approved or Pending -> Rejected.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// AWBPending is recorded when the carrier confirmed the shipment but has
// not yet assigned a waybill.
const AWBPending = "PENDING"

// ReturnItem is the snapshot of one returned item, taken at submission
// time so later changes to the live order do not corrupt history.
type ReturnItem struct {
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	OriginalCourier string  `json:"original_courier,omitempty"`
}

// ReturnRequest is the one mutable entity owned by this service. Requests
// are never deleted; decided requests are retained for audit.
type ReturnRequest struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      string `gorm:"index;not null" json:"order_id"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Pincode      string `json:"pincode"`

	Items    datatypes.JSON `gorm:"not null" json:"items"`
	Reason   string         `json:"reason"`
	Comments string         `json:"comments"`
	VideoURL string         `json:"video_url"`

	Status string `gorm:"index;not null;default:Pending" json:"status"`

	// Set when and only when the request was approved and the carrier
	// confirmed shipment creation.
	ShipmentID *int64     `json:"shipment_id,omitempty"`
	AWBCode    *string    `json:"awb_code,omitempty"`
	Courier    *string    `json:"courier,omitempty"`
	LabelURL   *string    `json:"label_url,omitempty"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RejectedBy      *string    `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// ParsedItems decodes the item snapshot column.
func (r *ReturnRequest) ParsedItems() ([]ReturnItem, error) {
	var items []ReturnItem
	if err := json.Unmarshal(r.Items, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarshalItems encodes item snapshots for storage.
func MarshalItems(items []ReturnItem) (datatypes.JSON, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
