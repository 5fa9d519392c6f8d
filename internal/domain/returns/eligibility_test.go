package returns

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticEvents(events []FulfillmentEvent, err error) EventsLookup {
	return func(Fulfillment) ([]FulfillmentEvent, error) {
		return events, err
	}
}

func TestEvaluateEligibilityNotShipped(t *testing.T) {
	now := time.Now()

	got := EvaluateEligibility(nil, nil, now, 0)
	assert.False(t, got.Returnable)
	assert.Equal(t, MessageNotShipped, got.Message)

	// A fulfillment without a tracking number has not shipped.
	got = EvaluateEligibility([]Fulfillment{{ID: 1}}, nil, now, 0)
	assert.False(t, got.Returnable)
	assert.Equal(t, MessageNotShipped, got.Message)
}

func TestEvaluateEligibilityInTransit(t *testing.T) {
	fulfillments := []Fulfillment{{
		ID:             1,
		TrackingNumber: "AWB123",
		ShipmentStatus: "in_transit",
	}}

	got := EvaluateEligibility(fulfillments, staticEvents(nil, nil), time.Now(), 0)
	assert.False(t, got.Returnable)
	assert.Equal(t, MessageInTransit, got.Message)
	assert.Nil(t, got.DeliveredAt)
}

func TestEvaluateEligibilityWithinWindow(t *testing.T) {
	deliveredAt := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	fulfillments := []Fulfillment{{
		ID:             1,
		TrackingNumber: "AWB123",
		ShipmentStatus: "delivered",
	}}
	lookup := staticEvents([]FulfillmentEvent{
		{Status: "in_transit", HappenedAt: deliveredAt.Add(-48 * time.Hour)},
		{Status: "delivered", HappenedAt: deliveredAt},
	}, nil)

	// Just inside the window.
	got := EvaluateEligibility(fulfillments, lookup, deliveredAt.Add(3*24*time.Hour-time.Minute), 0)
	assert.True(t, got.Returnable)
	assert.Equal(t, MessageEligible, got.Message)
	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, deliveredAt, *got.DeliveredAt)

	// Just past the window.
	got = EvaluateEligibility(fulfillments, lookup, deliveredAt.Add(3*24*time.Hour+time.Minute), 0)
	assert.False(t, got.Returnable)
	assert.Equal(t, MessageWindowClosed, got.Message)
	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, deliveredAt, *got.DeliveredAt)
}

func TestEvaluateEligibilityCustomWindow(t *testing.T) {
	deliveredAt := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	fulfillments := []Fulfillment{{TrackingNumber: "AWB123", ShipmentStatus: "delivered"}}
	lookup := staticEvents([]FulfillmentEvent{{Status: "delivered", HappenedAt: deliveredAt}}, nil)

	got := EvaluateEligibility(fulfillments, lookup, deliveredAt.Add(5*24*time.Hour), 7*24*time.Hour)
	assert.True(t, got.Returnable)

	got = EvaluateEligibility(fulfillments, lookup, deliveredAt.Add(8*24*time.Hour), 7*24*time.Hour)
	assert.False(t, got.Returnable)
}

func TestEvaluateEligibilityLookupFailureFailsOpen(t *testing.T) {
	fulfillments := []Fulfillment{{
		TrackingNumber: "AWB123",
		ShipmentStatus: "delivered",
	}}
	lookup := staticEvents(nil, errors.New("events endpoint 500"))

	got := EvaluateEligibility(fulfillments, lookup, time.Now(), 0)
	assert.True(t, got.Returnable)
	assert.Equal(t, MessageDateVerifyFailed, got.Message)
	assert.Nil(t, got.DeliveredAt)
}

func TestEvaluateEligibilityNoDeliveredEvent(t *testing.T) {
	// Courier says delivered but the timeline never recorded the event;
	// without a timestamp the window cannot close the return.
	fulfillments := []Fulfillment{{TrackingNumber: "AWB123", ShipmentStatus: "delivered"}}
	lookup := staticEvents([]FulfillmentEvent{
		{Status: "out_for_delivery", HappenedAt: time.Now().Add(-30 * 24 * time.Hour)},
	}, nil)

	got := EvaluateEligibility(fulfillments, lookup, time.Now(), 0)
	assert.True(t, got.Returnable)
	assert.Equal(t, MessageDelivered, got.Message)
	assert.Nil(t, got.DeliveredAt)
}

func TestEvaluateEligibilityLegacySuccessStatus(t *testing.T) {
	fulfillments := []Fulfillment{{
		TrackingNumber: "AWB123",
		Status:         "success",
	}}

	got := EvaluateEligibility(fulfillments, staticEvents(nil, nil), time.Now(), 0)
	assert.True(t, got.Returnable)
	assert.Equal(t, MessageDelivered, got.Message)
}

func TestEvaluateEligibilityUsesFirstShippedFulfillment(t *testing.T) {
	fulfillments := []Fulfillment{
		{ID: 1}, // never shipped, skipped
		{ID: 2, TrackingNumber: "AWB2", ShipmentStatus: "in_transit"},
		{ID: 3, TrackingNumber: "AWB3", ShipmentStatus: "delivered"},
	}

	got := EvaluateEligibility(fulfillments, staticEvents(nil, nil), time.Now(), 0)
	assert.Equal(t, MessageInTransit, got.Message)
}
