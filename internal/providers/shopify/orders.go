package shopify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/providers"
)

// shopifyOrder is the wire shape of an order, reduced to the fields the
// matcher and evaluator consume.
type shopifyOrder struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Customer  struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	ShippingAddress struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"shipping_address"`
	LineItems []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
	Fulfillments []struct {
		ID              int64  `json:"id"`
		Status          string `json:"status"`
		ShipmentStatus  string `json:"shipment_status"`
		TrackingNumber  string `json:"tracking_number"`
		TrackingCompany string `json:"tracking_company"`
	} `json:"fulfillments"`
}

// SearchCustomer probes one phone variant against the customer search API.
func (c *Client) SearchCustomer(ctx context.Context, phoneVariant string) (int64, bool, error) {
	query := url.Values{}
	query.Set("query", "phone:"+phoneVariant)

	var resp struct {
		Customers []struct {
			ID int64 `json:"id"`
		} `json:"customers"`
	}
	if err := c.get(ctx, "/customers/search.json", query, &resp); err != nil {
		return 0, false, err
	}

	if len(resp.Customers) == 0 {
		return 0, false, nil
	}
	return resp.Customers[0].ID, true, nil
}

// ListCustomerOrders fetches a customer's full order history, any status.
func (c *Client) ListCustomerOrders(ctx context.Context, customerID int64, limit int) ([]providers.Order, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Orders []shopifyOrder `json:"orders"`
	}
	path := fmt.Sprintf("/customers/%d/orders.json", customerID)
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return mapOrders(resp.Orders), nil
}

// ListRecentOrders fetches the most recent orders across the store.
func (c *Client) ListRecentOrders(ctx context.Context, limit int) ([]providers.Order, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := c.get(ctx, "/orders.json", query, &resp); err != nil {
		return nil, err
	}
	return mapOrders(resp.Orders), nil
}

// GetFulfillmentEvents fetches the courier event timeline of a fulfillment.
func (c *Client) GetFulfillmentEvents(ctx context.Context, orderID, fulfillmentID int64) ([]returns.FulfillmentEvent, error) {
	var resp struct {
		FulfillmentEvents []struct {
			Status     string    `json:"status"`
			HappenedAt time.Time `json:"happened_at"`
		} `json:"fulfillment_events"`
	}
	path := fmt.Sprintf("/orders/%d/fulfillments/%d/events.json", orderID, fulfillmentID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	events := make([]returns.FulfillmentEvent, 0, len(resp.FulfillmentEvents))
	for _, ev := range resp.FulfillmentEvents {
		events = append(events, returns.FulfillmentEvent{
			Status:     ev.Status,
			HappenedAt: ev.HappenedAt,
		})
	}
	return events, nil
}

// FindOrderByNumber fetches a single order by display number for the staff
// dashboard. Returns nil when no order matches.
func (c *Client) FindOrderByNumber(ctx context.Context, orderNumber string) (*providers.Order, error) {
	query := url.Values{}
	query.Set("name", strings.TrimPrefix(orderNumber, "#"))
	query.Set("status", "any")
	query.Set("limit", "1")

	var resp struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := c.get(ctx, "/orders.json", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Orders) == 0 {
		return nil, nil
	}
	order := mapOrder(resp.Orders[0])
	return &order, nil
}

func mapOrders(in []shopifyOrder) []providers.Order {
	out := make([]providers.Order, 0, len(in))
	for _, o := range in {
		out = append(out, mapOrder(o))
	}
	return out
}

func mapOrder(o shopifyOrder) providers.Order {
	createdAt, _ := time.Parse(time.RFC3339, o.CreatedAt)

	customerName := strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	if customerName == "" {
		customerName = o.ShippingAddress.Name
	}

	order := providers.Order{
		ID:            o.ID,
		Name:          o.Name,
		CreatedAt:     createdAt,
		CustomerName:  customerName,
		Email:         o.Email,
		Phone:         o.Phone,
		ShippingPhone: o.ShippingAddress.Phone,
	}

	for _, li := range o.LineItems {
		price, _ := strconv.ParseFloat(li.Price, 64)
		order.LineItems = append(order.LineItems, providers.LineItem{
			ID:       li.ID,
			Title:    li.Title,
			Quantity: li.Quantity,
			Price:    price,
		})
	}

	for _, f := range o.Fulfillments {
		order.Fulfillments = append(order.Fulfillments, returns.Fulfillment{
			ID:              f.ID,
			Status:          f.Status,
			ShipmentStatus:  f.ShipmentStatus,
			TrackingNumber:  f.TrackingNumber,
			TrackingCompany: f.TrackingCompany,
		})
	}

	return order
}
