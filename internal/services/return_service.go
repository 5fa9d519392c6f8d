package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/models"
	"github.com/satmi-commerce/service-returns/internal/providers"
	"github.com/satmi-commerce/service-returns/internal/repository"
)

// ReturnRequestStore is the persistence the workflow needs. Implemented by
// repository.ReturnRequestRepository.
type ReturnRequestStore interface {
	Create(ctx context.Context, req *models.ReturnRequest) error
	FindByID(ctx context.Context, id string) (*models.ReturnRequest, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.ReturnRequest, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	MarkApproved(ctx context.Context, id string, rec repository.ApprovalRecord) error
	MarkRejected(ctx context.Context, id string, rec repository.RejectionRecord) error
	SetLabelURL(ctx context.Context, id, labelURL string) error
}

// LifecyclePublisher emits return lifecycle events. May be nil when the
// message bus is not configured.
type LifecyclePublisher interface {
	ReturnSubmitted(req *models.ReturnRequest)
	ReturnApproved(req *models.ReturnRequest)
	ReturnRejected(req *models.ReturnRequest)
}

// ReturnServiceConfig tunes the workflow.
type ReturnServiceConfig struct {
	// WarehousePincode is the reverse-shipment destination and the
	// fallback pickup area when a request carries no pincode.
	WarehousePincode string
	// PreferredCourier and RateTolerance parameterize quote selection.
	PreferredCourier string
	RateTolerance    float64
	// ParcelWeight is the declared weight for reverse shipments (kg).
	ParcelWeight float64
}

// ReturnService owns the return request lifecycle: submission, the
// approve/reject decision, and label retrieval.
type ReturnService struct {
	store   ReturnRequestStore
	carrier providers.ShipmentCarrier
	events  LifecyclePublisher
	guard   *processingGuard
	config  ReturnServiceConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewReturnService creates a new ReturnService. events may be nil.
func NewReturnService(store ReturnRequestStore, carrier providers.ShipmentCarrier, events LifecyclePublisher, cfg ReturnServiceConfig, logger *zap.Logger) *ReturnService {
	return &ReturnService{
		store:   store,
		carrier: carrier,
		events:  events,
		guard:   newProcessingGuard(),
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// SubmitReturnInput is the customer-facing submission payload.
type SubmitReturnInput struct {
	OrderID      string
	CustomerName string
	Email        string
	Phone        string
	Pincode      string
	Items        []models.ReturnItem
	Reason       string
	Comments     string
	VideoURL     string
}

// Submit validates and persists a new Pending request. Items must be
// non-empty and an evidence video reference is required.
func (s *ReturnService) Submit(ctx context.Context, input SubmitReturnInput) (*models.ReturnRequest, error) {
	if strings.TrimSpace(input.OrderID) == "" ||
		len(input.Items) == 0 ||
		strings.TrimSpace(input.VideoURL) == "" {
		return nil, returns.ErrValidation
	}

	items, err := models.MarshalItems(input.Items)
	if err != nil {
		return nil, err
	}

	req := &models.ReturnRequest{
		ID:           uuid.New().String(),
		OrderID:      input.OrderID,
		CustomerName: input.CustomerName,
		Email:        input.Email,
		Phone:        input.Phone,
		Pincode:      input.Pincode,
		Items:        items,
		Reason:       input.Reason,
		Comments:     input.Comments,
		VideoURL:     input.VideoURL,
		Status:       models.StatusPending,
	}

	if err := s.store.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("return request submitted",
		zap.String("request_id", req.ID),
		zap.String("order_id", req.OrderID),
		zap.Int("items", len(input.Items)),
	)
	if s.events != nil {
		s.events.ReturnSubmitted(req)
	}
	return req, nil
}

// Get fetches one request.
func (s *ReturnService) Get(ctx context.Context, id string) (*models.ReturnRequest, error) {
	return s.store.FindByID(ctx, id)
}

// List fetches requests newest-first with the dashboard status tallies.
func (s *ReturnService) List(ctx context.Context, status string, limit, offset int) ([]models.ReturnRequest, int64, map[string]int64, error) {
	reqs, total, err := s.store.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, 0, nil, err
	}
	return reqs, total, counts, nil
}

// Approve decides a Pending request: one rate-quote call, courier
// selection, at most one order-creation call, then the conditional
// Pending -> Approved transition. Any failure before the carrier confirms
// shipment creation leaves the stored request untouched.
func (s *ReturnService) Approve(ctx context.Context, requestID, reviewer, pickupPincode string) (*models.ReturnRequest, error) {
	if !s.guard.tryAcquire(requestID) {
		return nil, returns.ErrAlreadyProcessing
	}
	defer s.guard.release(requestID)

	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, returns.ErrInvalidStateTransition
	}

	pincode := firstNonEmpty(pickupPincode, req.Pincode, s.config.WarehousePincode)

	quotes, err := s.carrier.GetRateQuotes(ctx, pincode, s.config.WarehousePincode, s.config.ParcelWeight)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, returns.ErrNoCourierAvailable
	}

	// The configured preferred-brand rule applies to every approval; the
	// per-call hint is reserved for future brand-per-request routing.
	selected, err := returns.SelectQuote(quotes, "", returns.SelectorConfig{
		PreferredCourier: s.config.PreferredCourier,
		RateTolerance:    s.config.RateTolerance,
	})
	if err != nil {
		return nil, err
	}

	items, err := req.ParsedItems()
	if err != nil {
		return nil, err
	}
	orderItems := make([]providers.ReturnOrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, providers.ReturnOrderItem{
			Name:         it.Title,
			SKU:          "RET",
			Units:        1,
			SellingPrice: it.Price,
		})
	}

	result, err := s.carrier.CreateReturnOrder(ctx, providers.ReturnOrderInput{
		OrderID:       req.OrderID,
		CustomerName:  req.CustomerName,
		Email:         req.Email,
		Phone:         req.Phone,
		PickupPincode: pincode,
		CourierID:     selected.CourierID,
		Items:         orderItems,
		Weight:        s.config.ParcelWeight,
	})
	if err != nil {
		s.logger.Error("carrier return order failed",
			zap.String("request_id", requestID),
			zap.String("courier", selected.CourierName),
			zap.Error(err),
		)
		return nil, err
	}

	awb := result.AWBCode
	if awb == "" {
		awb = models.AWBPending
	}

	err = s.store.MarkApproved(ctx, requestID, repository.ApprovalRecord{
		ShipmentID: result.ShipmentID,
		AWBCode:    awb,
		Courier:    selected.CourierName,
		ApprovedBy: reviewer,
		ApprovedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, returns.ErrInvalidStateTransition) {
			// A shipment now exists for a request decided elsewhere; an
			// operator has to void it with the carrier.
			s.logger.Error("request decided concurrently after shipment creation",
				zap.String("request_id", requestID),
				zap.Int64("shipment_id", result.ShipmentID),
			)
		}
		return nil, err
	}

	s.logger.Info("return request approved",
		zap.String("request_id", requestID),
		zap.String("reviewer", reviewer),
		zap.String("courier", selected.CourierName),
		zap.Float64("rate", selected.Rate),
		zap.Int64("shipment_id", result.ShipmentID),
	)

	updated, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.ReturnApproved(updated)
	}
	return updated, nil
}

// Reject decides a Pending request without external side effects. The
// reason is optional.
func (s *ReturnService) Reject(ctx context.Context, requestID, reviewer, reason string) (*models.ReturnRequest, error) {
	if !s.guard.tryAcquire(requestID) {
		return nil, returns.ErrAlreadyProcessing
	}
	defer s.guard.release(requestID)

	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, returns.ErrInvalidStateTransition
	}

	rec := repository.RejectionRecord{
		RejectedBy: reviewer,
		RejectedAt: s.now(),
	}
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		rec.Reason = &trimmed
	}

	if err := s.store.MarkRejected(ctx, requestID, rec); err != nil {
		return nil, err
	}

	s.logger.Info("return request rejected",
		zap.String("request_id", requestID),
		zap.String("reviewer", reviewer),
	)

	updated, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.ReturnRejected(updated)
	}
	return updated, nil
}

// FetchLabel returns the shipment label URL for an approved request. The
// URL is persisted after the first successful carrier call and served from
// the request on subsequent fetches.
func (s *ReturnService) FetchLabel(ctx context.Context, requestID string) (*models.ReturnRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ShipmentID == nil {
		return nil, returns.ErrNoShipment
	}
	if req.LabelURL != nil && *req.LabelURL != "" {
		return req, nil
	}

	labelURL, err := s.carrier.GenerateLabel(ctx, *req.ShipmentID)
	if err != nil {
		s.logger.Error("carrier label generation failed",
			zap.String("request_id", requestID),
			zap.Int64("shipment_id", *req.ShipmentID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.store.SetLabelURL(ctx, requestID, labelURL); err != nil {
		return nil, err
	}

	s.logger.Info("shipment label fetched",
		zap.String("request_id", requestID),
		zap.Int64("shipment_id", *req.ShipmentID),
	)

	req.LabelURL = &labelURL
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
