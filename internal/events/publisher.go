// Package events publishes return lifecycle events to NATS so downstream
// services (notifications, analytics) can react without polling.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/models"
)

// Event subjects.
const (
	SubjectReturnSubmitted = "returns.request.submitted"
	SubjectReturnApproved  = "returns.request.approved"
	SubjectReturnRejected  = "returns.request.rejected"
)

// ReturnSubmittedEvent announces a new Pending request.
type ReturnSubmittedEvent struct {
	RequestID    string    `json:"request_id"`
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReturnApprovedEvent announces an approval and its shipment.
type ReturnApprovedEvent struct {
	RequestID  string    `json:"request_id"`
	OrderID    string    `json:"order_id"`
	ShipmentID *int64    `json:"shipment_id,omitempty"`
	AWBCode    string    `json:"awb_code,omitempty"`
	Courier    string    `json:"courier,omitempty"`
	ApprovedBy string    `json:"approved_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReturnRejectedEvent announces a rejection.
type ReturnRejectedEvent struct {
	RequestID  string    `json:"request_id"`
	OrderID    string    `json:"order_id"`
	Reason     string    `json:"reason,omitempty"`
	RejectedBy string    `json:"rejected_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes lifecycle events. Publishing is best-effort: a bus
// failure is logged, never surfaced to the caller.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// ReturnSubmitted publishes a submission event.
func (p *Publisher) ReturnSubmitted(req *models.ReturnRequest) {
	p.publish(SubjectReturnSubmitted, ReturnSubmittedEvent{
		RequestID:    req.ID,
		OrderID:      req.OrderID,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Reason:       req.Reason,
		Timestamp:    time.Now().UTC(),
	})
}

// ReturnApproved publishes an approval event.
func (p *Publisher) ReturnApproved(req *models.ReturnRequest) {
	ev := ReturnApprovedEvent{
		RequestID:  req.ID,
		OrderID:    req.OrderID,
		ShipmentID: req.ShipmentID,
		Timestamp:  time.Now().UTC(),
	}
	if req.AWBCode != nil {
		ev.AWBCode = *req.AWBCode
	}
	if req.Courier != nil {
		ev.Courier = *req.Courier
	}
	if req.ApprovedBy != nil {
		ev.ApprovedBy = *req.ApprovedBy
	}
	p.publish(SubjectReturnApproved, ev)
}

// ReturnRejected publishes a rejection event.
func (p *Publisher) ReturnRejected(req *models.ReturnRequest) {
	ev := ReturnRejectedEvent{
		RequestID: req.ID,
		OrderID:   req.OrderID,
		Timestamp: time.Now().UTC(),
	}
	if req.RejectionReason != nil {
		ev.Reason = *req.RejectionReason
	}
	if req.RejectedBy != nil {
		ev.RejectedBy = *req.RejectedBy
	}
	p.publish(SubjectReturnRejected, ev)
}

func (p *Publisher) publish(subject string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
		return
	}
	p.logger.Debug("event published", zap.String("subject", subject))
}
