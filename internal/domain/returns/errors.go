// Package returns holds the domain core of the returns service: the error
// taxonomy, phone-number probing, delivery eligibility rules and courier
// quote selection. Everything in this package is side-effect free.
package returns

import (
	"errors"
	"fmt"
)

// Business and upstream errors surfaced to the API boundaries.
var (
	// ErrValidation marks bad caller input. Never retried.
	ErrValidation = errors.New("invalid request input")

	// ErrRequestNotFound indicates an unknown return request id.
	ErrRequestNotFound = errors.New("return request not found")

	// ErrUpstreamUnavailable indicates the upstream could not be reached.
	// Transient; the caller may retry the whole operation.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrUpstreamTimeout indicates an outbound call exceeded its deadline.
	// The owning request is left in its prior state.
	ErrUpstreamTimeout = errors.New("upstream call timed out")

	// ErrNoCourierAvailable indicates the carrier reported no serviceable
	// couriers for the pincode pair.
	ErrNoCourierAvailable = errors.New("no couriers available")

	// ErrCarrierOrderFailed indicates the carrier accepted the call but did
	// not return a shipment id.
	ErrCarrierOrderFailed = errors.New("carrier return order creation failed")

	// ErrCarrierLabelFailed indicates the label generation call errored.
	ErrCarrierLabelFailed = errors.New("carrier label generation failed")

	// ErrInvalidStateTransition indicates an approve/reject on a request
	// that is no longer Pending.
	ErrInvalidStateTransition = errors.New("return request already decided")

	// ErrAlreadyProcessing indicates a concurrent action on the same
	// request id. The caller may retry once the current action completes.
	ErrAlreadyProcessing = errors.New("return request is being processed")

	// ErrNoShipment indicates a label was requested before approval
	// produced a shipment.
	ErrNoShipment = errors.New("no shipment exists for this request")
)

// UpstreamError carries the raw upstream failure so operators can diagnose
// approve/label failures without grepping carrier dashboards.
type UpstreamError struct {
	Op         string // e.g. "shiprocket.create_return_order"
	StatusCode int
	Message    string // raw upstream payload or message
	Err        error  // sentinel this error maps to
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap lets errors.Is match the sentinel the upstream failure maps to.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps a raw upstream failure under the given sentinel.
func NewUpstreamError(op string, statusCode int, message string, sentinel error) *UpstreamError {
	return &UpstreamError{
		Op:         op,
		StatusCode: statusCode,
		Message:    message,
		Err:        sentinel,
	}
}

// UpstreamMessage extracts the raw upstream message from err, if any.
func UpstreamMessage(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}

// IsConflict reports whether err should surface as an HTTP conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrAlreadyProcessing)
}

// IsTransient reports whether the caller may safely retry the whole
// operation. The service itself never retries.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrUpstreamTimeout)
}
