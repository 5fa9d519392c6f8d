package shiprocket

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/providers"
)

const (
	serviceabilityPath = "/courier/serviceability/"
	createReturnPath   = "/orders/create/return"
	generateLabelPath  = "/courier/generate/label"
)

// Parcel defaults for apparel returns. Shiprocket rejects orders without
// dimensions.
const (
	defaultDimensionCM = 10
	DefaultWeightKG    = 0.5
)

// GetRateQuotes queries courier serviceability for the pincode pair. An
// empty slice (not an error) means no courier serves the lane.
func (c *Client) GetRateQuotes(ctx context.Context, pickupPincode, deliveryPincode string, weight float64) ([]returns.CourierQuote, error) {
	if weight <= 0 {
		weight = DefaultWeightKG
	}

	query := url.Values{}
	query.Set("pickup_postcode", pickupPincode)
	query.Set("delivery_postcode", deliveryPincode)
	query.Set("weight", strconv.FormatFloat(weight, 'f', -1, 64))
	query.Set("cod", "0")

	var resp struct {
		Data struct {
			AvailableCourierCompanies []struct {
				CourierCompanyID int64   `json:"courier_company_id"`
				CourierName      string  `json:"courier_name"`
				Rate             float64 `json:"rate"`
				ModeName         string  `json:"mode_name"`
			} `json:"available_courier_companies"`
		} `json:"data"`
	}
	body, status, err := c.do(ctx, http.MethodGet, serviceabilityPath, query, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		// Shiprocket reports an unserviceable lane as a 4xx with a message
		// body. That is an answer, not an outage: no courier serves it.
		c.logger.Debug("shiprocket reported unserviceable lane",
			zap.String("pickup", pickupPincode),
			zap.String("delivery", deliveryPincode),
			zap.Int("status", status),
			zap.ByteString("response", body),
		)
		return nil, nil
	}

	quotes := make([]returns.CourierQuote, 0, len(resp.Data.AvailableCourierCompanies))
	for _, cc := range resp.Data.AvailableCourierCompanies {
		quotes = append(quotes, returns.CourierQuote{
			CourierID:   cc.CourierCompanyID,
			CourierName: cc.CourierName,
			Rate:        cc.Rate,
			Mode:        cc.ModeName,
		})
	}
	return quotes, nil
}

// CreateReturnOrder books the reverse shipment. The carrier must return a
// shipment id; anything else is a business failure carrying the raw
// upstream payload for the reviewer.
func (c *Client) CreateReturnOrder(ctx context.Context, input providers.ReturnOrderInput) (*providers.ReturnOrderResult, error) {
	weight := input.Weight
	if weight <= 0 {
		weight = DefaultWeightKG
	}

	items := make([]map[string]interface{}, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, map[string]interface{}{
			"name":          it.Name,
			"sku":           it.SKU,
			"units":         it.Units,
			"selling_price": strconv.FormatFloat(it.SellingPrice, 'f', -1, 64),
		})
	}

	payload := map[string]interface{}{
		"order_id":             input.OrderID,
		"order_date":           time.Now().Format("2006-01-02"),
		"pickup_customer_name": input.CustomerName,
		"pickup_pincode":       input.PickupPincode,
		"pickup_phone":         input.Phone,
		"pickup_email":         input.Email,
		"length":               defaultDimensionCM,
		"breadth":              defaultDimensionCM,
		"height":               defaultDimensionCM,
		"weight":               weight,
		"order_items":          items,
		"payment_method":       "Prepaid",
		"courier_id":           input.CourierID,
	}

	var resp struct {
		ShipmentID int64  `json:"shipment_id"`
		AWBCode    string `json:"awb_code"`
	}
	body, status, err := c.do(ctx, http.MethodPost, createReturnPath, nil, payload, &resp)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest || resp.ShipmentID == 0 {
		c.logger.Warn("shiprocket rejected return order",
			zap.String("order_id", input.OrderID),
			zap.Int("status", status),
			zap.ByteString("response", body),
		)
		return nil, returns.NewUpstreamError("shiprocket"+createReturnPath, status, string(body), returns.ErrCarrierOrderFailed)
	}

	return &providers.ReturnOrderResult{
		ShipmentID: resp.ShipmentID,
		AWBCode:    resp.AWBCode,
	}, nil
}

// GenerateLabel requests a printable label for an existing shipment. The
// carrier regenerates the same label resource on repeat calls, so this is
// safe to retry.
func (c *Client) GenerateLabel(ctx context.Context, shipmentID int64) (string, error) {
	payload := map[string]interface{}{
		"order_id": []int64{shipmentID},
	}

	var resp struct {
		LabelURL         string   `json:"label_url"`
		LabelURLs        []string `json:"label_urls"`
		URL              string   `json:"url"`
		ShipmentLabelURL string   `json:"shipment_label_url"`
	}
	body, status, err := c.do(ctx, http.MethodPost, generateLabelPath, nil, payload, &resp)
	if err != nil {
		return "", err
	}
	if status >= http.StatusBadRequest {
		return "", returns.NewUpstreamError("shiprocket"+generateLabelPath, status, string(body), returns.ErrCarrierLabelFailed)
	}

	labelURL := resp.LabelURL
	if labelURL == "" && len(resp.LabelURLs) > 0 {
		labelURL = resp.LabelURLs[0]
	}
	if labelURL == "" {
		labelURL = resp.URL
	}
	if labelURL == "" {
		labelURL = resp.ShipmentLabelURL
	}
	if labelURL == "" {
		return "", returns.NewUpstreamError("shiprocket"+generateLabelPath, status, string(body), returns.ErrCarrierLabelFailed)
	}

	return labelURL, nil
}
