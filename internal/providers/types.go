// Package providers defines the upstream ports of the returns service and
// the neutral types exchanged across them. Concrete implementations live in
// the per-platform subpackages.
package providers

import (
	"context"
	"time"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
)

// Order is an order read from the order directory. The directory owns it;
// this service never writes orders.
type Order struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	// ShippingPhone is the contact phone on the shipping address, which
	// guest checkouts often fill while leaving Phone empty.
	ShippingPhone string                `json:"shipping_phone,omitempty"`
	LineItems     []LineItem            `json:"line_items"`
	Fulfillments  []returns.Fulfillment `json:"fulfillments"`
}

// LineItem is one ordered line of an order.
type LineItem struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderDirectory is the upstream order/customer store. All calls are
// read-only HTTP requests.
type OrderDirectory interface {
	// SearchCustomer probes one phone variant against the customer search.
	// found is false (not an error) when no customer matches.
	SearchCustomer(ctx context.Context, phoneVariant string) (customerID int64, found bool, err error)

	// ListCustomerOrders fetches a customer's order history, bounded by limit.
	ListCustomerOrders(ctx context.Context, customerID int64, limit int) ([]Order, error)

	// ListRecentOrders fetches the most recent orders across all customers,
	// the fallback window for guest checkouts.
	ListRecentOrders(ctx context.Context, limit int) ([]Order, error)

	// GetFulfillmentEvents fetches the courier event timeline of one
	// fulfillment.
	GetFulfillmentEvents(ctx context.Context, orderID, fulfillmentID int64) ([]returns.FulfillmentEvent, error)

	// FindOrderByNumber fetches a single order by its display number
	// (with or without the leading "#"). Returns nil when not found.
	FindOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)
}

// ReturnOrderInput is the payload for creating a reverse shipment.
type ReturnOrderInput struct {
	OrderID       string
	CustomerName  string
	Email         string
	Phone         string
	PickupPincode string
	CourierID     int64
	Items         []ReturnOrderItem
	Weight        float64
}

// ReturnOrderItem is one item on the reverse shipment.
type ReturnOrderItem struct {
	Name         string
	SKU          string
	Units        int
	SellingPrice float64
}

// ReturnOrderResult is the carrier's confirmation of a reverse shipment.
type ReturnOrderResult struct {
	ShipmentID int64
	// AWBCode may be empty when the carrier has not yet assigned one.
	AWBCode string
}

// ShipmentCarrier is the reverse-logistics upstream.
type ShipmentCarrier interface {
	// GetRateQuotes returns serviceability quotes for the pincode pair.
	// An empty slice means no courier serves the lane.
	GetRateQuotes(ctx context.Context, pickupPincode, deliveryPincode string, weight float64) ([]returns.CourierQuote, error)

	// CreateReturnOrder books the reverse shipment with the chosen courier.
	CreateReturnOrder(ctx context.Context, input ReturnOrderInput) (*ReturnOrderResult, error)

	// GenerateLabel requests a printable label for an existing shipment.
	// Safe to call repeatedly for the same shipment.
	GenerateLabel(ctx context.Context, shipmentID int64) (labelURL string, err error)
}
