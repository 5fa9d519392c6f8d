package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", returns.ErrValidation, http.StatusBadRequest},
		{"not found", returns.ErrRequestNotFound, http.StatusNotFound},
		{"already processing", returns.ErrAlreadyProcessing, http.StatusConflict},
		{"invalid transition", returns.ErrInvalidStateTransition, http.StatusConflict},
		{"upstream timeout", returns.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{"upstream unavailable", returns.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"no courier", returns.ErrNoCourierAvailable, http.StatusBadGateway},
		{"carrier order failed", returns.ErrCarrierOrderFailed, http.StatusBadGateway},
		{"carrier label failed", returns.ErrCarrierLabelFailed, http.StatusBadGateway},
		{"no shipment", returns.ErrNoShipment, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRespondErrorIncludesUpstreamPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, returns.NewUpstreamError("shiprocket/orders/create/return", 400,
		`{"message":"pickup location not serviceable"}`, returns.ErrCarrierOrderFailed))

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["upstream"], "pickup location not serviceable")
	assert.NotEmpty(t, body["error"])
}

func TestRespondErrorWrappedSentinel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Sentinels wrapped inside an UpstreamError still map by errors.Is.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, returns.NewUpstreamError("shopify/orders.json", 0,
		"context deadline exceeded", returns.ErrUpstreamTimeout))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
