package shiprocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
	"github.com/satmi-commerce/service-returns/internal/providers"
)

// fakeClock is a settable time source.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestTokenSource(t *testing.T, baseURL string, clock *fakeClock) *TokenSource {
	t.Helper()
	ts, err := NewTokenSource(TokenSourceConfig{
		Email:    "ops@example.com",
		Password: "secret",
		BaseURL:  baseURL,
		Now:      clock.now,
	})
	require.NoError(t, err)
	return ts
}

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	var logins int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ops@example.com", creds["email"])

		n := atomic.AddInt32(&logins, 1)
		json.NewEncoder(w).Encode(map[string]string{
			"token": "tok-" + string(rune('0'+n)),
		})
	}))
	defer srv.Close()

	clock := &fakeClock{current: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	ts := newTestTokenSource(t, srv.URL, clock)
	ctx := context.Background()

	tok, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Within the TTL the cached token is reused without a login call.
	clock.advance(23 * time.Hour)
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))

	// Past the TTL a fresh login happens.
	clock.advance(2 * time.Hour)
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&logins))
}

func TestTokenSourceInvalidate(t *testing.T) {
	var logins int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&logins, 1)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	}))
	defer srv.Close()

	clock := &fakeClock{current: time.Now()}
	ts := newTestTokenSource(t, srv.URL, clock)
	ctx := context.Background()

	_, err := ts.Token(ctx)
	require.NoError(t, err)
	ts.Invalidate()
	_, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&logins))
}

func TestTokenSourceLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	clock := &fakeClock{current: time.Now()}
	ts := newTestTokenSource(t, srv.URL, clock)

	_, err := ts.Token(context.Background())
	assert.ErrorIs(t, err, returns.ErrUpstreamUnavailable)

	var upstream *returns.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	clock := &fakeClock{current: time.Now()}
	ts := newTestTokenSource(t, srv.URL, clock)
	client, err := NewClient(&ClientConfig{
		BaseURL: srv.URL,
		Tokens:  ts,
	})
	require.NoError(t, err)
	return client
}

func carrierServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, newTestClient(t, srv)
}

func TestGetRateQuotes(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, serviceabilityPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "110001", r.URL.Query().Get("pickup_postcode"))
		assert.Equal(t, "201318", r.URL.Query().Get("delivery_postcode"))
		assert.Equal(t, "0", r.URL.Query().Get("cod"))

		w.Write([]byte(`{"data":{"available_courier_companies":[
			{"courier_company_id":10,"courier_name":"Delhivery Surface","rate":103.5,"mode_name":"surface"},
			{"courier_company_id":20,"courier_name":"BlueDart Air","rate":150,"mode_name":"air"}
		]}}`))
	})

	quotes, err := client.GetRateQuotes(context.Background(), "110001", "201318", 0.5)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, returns.CourierQuote{CourierID: 10, CourierName: "Delhivery Surface", Rate: 103.5, Mode: "surface"}, quotes[0])
}

func TestGetRateQuotesNoLane(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"available_courier_companies":[]}}`))
	})

	quotes, err := client.GetRateQuotes(context.Background(), "110001", "201318", 0.5)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestGetRateQuotesUnserviceablePincode(t *testing.T) {
	// Shiprocket answers an unknown pincode with a 4xx and a message body.
	// That is "no courier serves this lane", not an upstream outage.
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Oops! Invalid Pickup or Delivery Pincode."}`))
	})

	quotes, err := client.GetRateQuotes(context.Background(), "000000", "201318", 0.5)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestCreateReturnOrder(t *testing.T) {
	var payload map[string]interface{}
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, createReturnPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"shipment_id":555,"awb_code":"AWB555"}`))
	})

	result, err := client.CreateReturnOrder(context.Background(), testReturnOrderInput())
	require.NoError(t, err)
	assert.Equal(t, int64(555), result.ShipmentID)
	assert.Equal(t, "AWB555", result.AWBCode)

	assert.Equal(t, "#1001", payload["order_id"])
	assert.Equal(t, "110001", payload["pickup_pincode"])
	assert.Equal(t, "Prepaid", payload["payment_method"])
	assert.Equal(t, float64(10), payload["courier_id"])
}

func TestCreateReturnOrderRejected(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"pickup location not serviceable"}`))
	})

	_, err := client.CreateReturnOrder(context.Background(), testReturnOrderInput())
	assert.ErrorIs(t, err, returns.ErrCarrierOrderFailed)
	assert.Contains(t, returns.UpstreamMessage(err), "pickup location not serviceable")
}

func TestCreateReturnOrderMissingShipmentID(t *testing.T) {
	// A 200 without a shipment id is still a failure; nothing was booked.
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error"}`))
	})

	_, err := client.CreateReturnOrder(context.Background(), testReturnOrderInput())
	assert.ErrorIs(t, err, returns.ErrCarrierOrderFailed)
}

func TestGenerateLabel(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, generateLabelPath, r.URL.Path)
		var payload map[string][]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []int64{555}, payload["order_id"])
		w.Write([]byte(`{"label_url":"https://labels.example.com/555.pdf"}`))
	})

	url, err := client.GenerateLabel(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "https://labels.example.com/555.pdf", url)
}

func TestGenerateLabelAlternateFields(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label_urls":["https://labels.example.com/alt.pdf"]}`))
	})

	url, err := client.GenerateLabel(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "https://labels.example.com/alt.pdf", url)
}

func TestGenerateLabelEmptyResponse(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.GenerateLabel(context.Background(), 555)
	assert.ErrorIs(t, err, returns.ErrCarrierLabelFailed)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	_, client := carrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetRateQuotes(context.Background(), "110001", "201318", 0.5)
	assert.ErrorIs(t, err, returns.ErrUpstreamUnavailable)
}

func testReturnOrderInput() providers.ReturnOrderInput {
	return providers.ReturnOrderInput{
		OrderID:       "#1001",
		CustomerName:  "Asha Verma",
		Email:         "asha@example.com",
		Phone:         "9999999999",
		PickupPincode: "110001",
		CourierID:     10,
		Items: []providers.ReturnOrderItem{
			{Name: "Blue Kurta", SKU: "RET", Units: 1, SellingPrice: 1299},
		},
		Weight: 0.5,
	}
}
