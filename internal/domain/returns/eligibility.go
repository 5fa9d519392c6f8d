package returns

import "time"

// DefaultReturnWindow is how long after delivery a return may be requested.
const DefaultReturnWindow = 3 * 24 * time.Hour

// Eligibility messages shown to the customer. The admin dashboard filters
// on these strings, so they are part of the contract.
const (
	MessageNotShipped       = "Not Shipped Yet"
	MessageInTransit        = "In Transit"
	MessageEligible         = "Eligible for Return"
	MessageWindowClosed     = "Return Window Closed (Over 3 Days)"
	MessageDelivered        = "Delivered"
	MessageDateVerifyFailed = "Delivered (Date Verify Failed)"
)

// Fulfillment is a shipment record covering some or all of an order's
// items, as read from the order directory. A fulfillment without a
// tracking number has not shipped.
type Fulfillment struct {
	ID              int64
	TrackingNumber  string
	TrackingCompany string
	// Status is the coarse fulfillment status ("success" means delivered
	// on older API versions).
	Status string
	// ShipmentStatus is the courier-level status ("delivered",
	// "in_transit", ...). Empty when the courier has not reported yet.
	ShipmentStatus string
}

// Shipped reports whether the fulfillment has a tracking number.
func (f Fulfillment) Shipped() bool {
	return f.TrackingNumber != ""
}

// FulfillmentEvent is one courier tracking event.
type FulfillmentEvent struct {
	Status     string
	HappenedAt time.Time
}

// Eligibility is the derived return-eligibility of an order. It is computed
// fresh on every query and never persisted: courier status changes between
// queries and a stale "not eligible" would block a legitimate return.
type Eligibility struct {
	DeliveredAt *time.Time `json:"delivered_date"`
	Returnable  bool       `json:"is_returnable"`
	Message     string     `json:"message"`
}

// EventsLookup fetches the tracking event history of a fulfillment on
// demand. A lookup failure does not block the return (fail open).
type EventsLookup func(f Fulfillment) ([]FulfillmentEvent, error)

const shipmentStatusDelivered = "delivered"

// EvaluateEligibility applies the return-window rules to an order's
// fulfillments as of now. Rules, against the first shipped fulfillment:
//
//   - nothing shipped: not returnable, "Not Shipped Yet"
//   - shipped but courier has not reported delivery: "In Transit"
//   - courier reports delivered: returnable within window days of the
//     delivered event; past it, "Return Window Closed". When the event
//     history has no delivered event, or the lookup itself fails, the
//     absence of a precise timestamp does not block the return.
//   - legacy "success" fulfillment status: treated as delivered.
func EvaluateEligibility(fulfillments []Fulfillment, lookup EventsLookup, now time.Time, window time.Duration) Eligibility {
	if window <= 0 {
		window = DefaultReturnWindow
	}

	var shipped *Fulfillment
	for i := range fulfillments {
		if fulfillments[i].Shipped() {
			shipped = &fulfillments[i]
			break
		}
	}

	if shipped == nil {
		return Eligibility{Message: MessageNotShipped}
	}

	if shipped.ShipmentStatus == shipmentStatusDelivered {
		return evaluateDelivered(*shipped, lookup, now, window)
	}

	if shipped.Status == "success" {
		// Delivered via the coarse status; no event timeline to consult.
		return Eligibility{Returnable: true, Message: MessageDelivered}
	}

	return Eligibility{Message: MessageInTransit}
}

func evaluateDelivered(f Fulfillment, lookup EventsLookup, now time.Time, window time.Duration) Eligibility {
	if lookup == nil {
		return Eligibility{Returnable: true, Message: MessageDelivered}
	}

	events, err := lookup(f)
	if err != nil {
		// Fail open: an upstream hiccup verifying the date must not block
		// a legitimate return.
		return Eligibility{Returnable: true, Message: MessageDateVerifyFailed}
	}

	for _, ev := range events {
		if ev.Status != shipmentStatusDelivered {
			continue
		}
		deliveredAt := ev.HappenedAt
		if now.After(deliveredAt.Add(window)) {
			return Eligibility{DeliveredAt: &deliveredAt, Message: MessageWindowClosed}
		}
		return Eligibility{DeliveredAt: &deliveredAt, Returnable: true, Message: MessageEligible}
	}

	// Marked delivered but the timeline has no delivered event.
	return Eligibility{Returnable: true, Message: MessageDelivered}
}
