// Package services contains the orchestration core of the returns service:
// the order matcher and the return request workflow.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/providers"
)

// DefaultOrderPageSize bounds both the customer order history fetch and the
// recent-orders fallback window.
const DefaultOrderPageSize = 250

// AnnotatedOrder is an order with its freshly computed delivery
// eligibility.
type AnnotatedOrder struct {
	providers.Order
	DeliveryStatus returns.Eligibility `json:"delivery_status"`
}

// OrderLookupConfig tunes the order matcher.
type OrderLookupConfig struct {
	// PageSize defaults to DefaultOrderPageSize.
	PageSize int
	// ReturnWindow defaults to returns.DefaultReturnWindow.
	ReturnWindow time.Duration
}

// OrderLookupService resolves a caller-supplied phone number to the
// customer's order history, annotated with return eligibility.
type OrderLookupService struct {
	directory providers.OrderDirectory
	cache     *CustomerLookupCache
	config    OrderLookupConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderLookupService creates a new OrderLookupService. cache may be nil.
func NewOrderLookupService(directory providers.OrderDirectory, cache *CustomerLookupCache, cfg OrderLookupConfig, logger *zap.Logger) *OrderLookupService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultOrderPageSize
	}
	if cfg.ReturnWindow <= 0 {
		cfg.ReturnWindow = returns.DefaultReturnWindow
	}
	return &OrderLookupService{
		directory: directory,
		cache:     cache,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// FindOrders matches a phone number to its order history. Strategies, in
// order, stopping at the first non-empty success:
//
//  1. probe the customer search with each phone variant until one matches,
//     then fetch that customer's order history;
//  2. for guest checkouts with no customer profile, scan the recent-orders
//     window and keep orders whose stored phones contain the canonical
//     national number.
//
// An empty result is not an error. Eligibility is evaluated per order from
// live fulfillment data; one order's evaluation failure never fails the
// batch.
func (s *OrderLookupService) FindOrders(ctx context.Context, phoneNumber string) ([]AnnotatedOrder, error) {
	nationalNumber := returns.CanonicalNationalNumber(phoneNumber)
	if nationalNumber == "" {
		return nil, returns.ErrValidation
	}

	orders, err := s.matchOrders(ctx, phoneNumber, nationalNumber)
	if err != nil {
		return nil, err
	}

	annotated := make([]AnnotatedOrder, 0, len(orders))
	for _, order := range orders {
		annotated = append(annotated, AnnotatedOrder{
			Order:          order,
			DeliveryStatus: s.evaluate(ctx, order),
		})
	}
	return annotated, nil
}

func (s *OrderLookupService) matchOrders(ctx context.Context, phoneNumber, nationalNumber string) ([]providers.Order, error) {
	customerID, found := int64(0), false

	if s.cache != nil {
		customerID, found = s.cache.Get(ctx, nationalNumber)
	}

	if !found {
		for _, variant := range returns.PhoneVariants(phoneNumber) {
			id, ok, err := s.directory.SearchCustomer(ctx, variant)
			if err != nil {
				return nil, err
			}
			if ok {
				customerID, found = id, true
				if s.cache != nil {
					s.cache.Set(ctx, nationalNumber, id)
				}
				break
			}
		}
	}

	if found {
		orders, err := s.directory.ListCustomerOrders(ctx, customerID, s.config.PageSize)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("matched orders via customer profile",
			zap.Int64("customer_id", customerID),
			zap.Int("orders", len(orders)),
		)
		return orders, nil
	}

	// Guest checkouts often never get a customer profile; fall back to
	// filtering the recent-orders window by phone substring.
	recent, err := s.directory.ListRecentOrders(ctx, s.config.PageSize)
	if err != nil {
		return nil, err
	}

	matched := make([]providers.Order, 0)
	for _, order := range recent {
		if returns.PhoneMatches(order.Phone, nationalNumber) ||
			returns.PhoneMatches(order.ShippingPhone, nationalNumber) {
			matched = append(matched, order)
		}
	}
	s.logger.Debug("matched orders via recent-orders fallback",
		zap.Int("scanned", len(recent)),
		zap.Int("matched", len(matched)),
	)
	return matched, nil
}

func (s *OrderLookupService) evaluate(ctx context.Context, order providers.Order) returns.Eligibility {
	lookup := func(f returns.Fulfillment) ([]returns.FulfillmentEvent, error) {
		events, err := s.directory.GetFulfillmentEvents(ctx, order.ID, f.ID)
		if err != nil {
			// The evaluator fails open; log so the degraded path is visible.
			s.logger.Warn("fulfillment event lookup failed",
				zap.Int64("order_id", order.ID),
				zap.Int64("fulfillment_id", f.ID),
				zap.Error(err),
			)
		}
		return events, err
	}
	return returns.EvaluateEligibility(order.Fulfillments, lookup, s.now(), s.config.ReturnWindow)
}

// FindOrderByNumber fetches a single order for the staff dashboard,
// annotated like the customer lookup.
func (s *OrderLookupService) FindOrderByNumber(ctx context.Context, orderNumber string) (*AnnotatedOrder, error) {
	if orderNumber == "" {
		return nil, returns.ErrValidation
	}

	order, err := s.directory.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	return &AnnotatedOrder{
		Order:          *order,
		DeliveryStatus: s.evaluate(ctx, *order),
	}, nil
}
