package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	d "github.com/obinna-o/go_marketgate/internal/checkout/domain"
	r "github.com/obinna-o/go_marketgate/internal/checkout/repository"
	"github.com/google/uuid"
)

// Redirect targets for the terminal views. Every outcome carries one so the
// caller is never left without a terminal transition.
const (
	RedirectSuccess = "/checkout/success"
	RedirectFailure = "/checkout/failure"
	RedirectCart    = "/cart"
)

// StatusCancelled is the provider's query-parameter value for a
// user-aborted payment. An abort is not an error, just an exit to the cart.
const StatusCancelled = "cancelled"

const DefaultVerifyTimeout = 30 * time.Second

type Verifier interface {
	Verify(ctx context.Context, reference string) (*d.VerificationResult, error)
}

type SessionManager interface {
	Ensure(ctx context.Context, clientID string) (string, error)
	Rotate(ctx context.Context, clientID string) (string, error)
}

type CartStore interface {
	ClearCart(ctx context.Context, sessionID string) error
}

type OrderRecorder interface {
	RecordVerifiedOrder(ctx context.Context, rec *r.OrderRecord) error
}

// CallbackParams are the query parameters the payment provider appends when
// redirecting back. TxRef is an alternate reference some providers send.
type CallbackParams struct {
	Reference string
	Status    string
	TxRef     string
}

type Outcome struct {
	Status       d.CheckoutStatus `json:"status"`
	Redirect     string           `json:"redirect"`
	OrderID      string           `json:"order_id,omitempty"`
	Order        *d.OrderData     `json:"order_data,omitempty"`
	Reference    string           `json:"reference,omitempty"`
	ErrorCode    d.ErrorCode      `json:"error_code,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CartWarning  string           `json:"cart_warning,omitempty"`
}

// Orchestrator drives one callback visit through
// IDLE -> VERIFYING -> {SUCCESS, FAILURE} with the early CANCELLED exit:
// verify the reference against the backend, and on success reconcile local
// state (rotate session, then clear cart) before handing the mapped order to
// the success view. Failures leave cart and session untouched so the same
// reference can be retried.
type Orchestrator struct {
	verifier      Verifier
	sessions      SessionManager
	carts         CartStore
	repo          OrderRecorder
	verifyTimeout time.Duration
}

func NewOrchestrator(verifier Verifier, sessions SessionManager, carts CartStore, repo OrderRecorder) *Orchestrator {
	return &Orchestrator{
		verifier:      verifier,
		sessions:      sessions,
		carts:         carts,
		repo:          repo,
		verifyTimeout: DefaultVerifyTimeout,
	}
}

func (o *Orchestrator) HandleCallback(ctx context.Context, clientID string, params CallbackParams) Outcome {
	status := d.CheckoutStatusIdle

	// user-cancelled is a fast path back to the cart, no verification attempted
	if params.Status == StatusCancelled && d.CanTransitionTo(status, d.CheckoutStatusCancelled) {
		return Outcome{
			Status:   d.CheckoutStatusCancelled,
			Redirect: RedirectCart,
		}
	}

	reference := params.Reference
	if reference == "" {
		reference = params.TxRef
	}
	if reference == "" {
		return failure("", d.ErrCodeNoReference, "payment reference missing, please restart checkout")
	}

	if !d.CanTransitionTo(status, d.CheckoutStatusVerifying) {
		return failure(reference, d.ErrCodeInvalidResponse, "checkout already resolved")
	}
	status = d.CheckoutStatusVerifying

	// the one network round trip that decides the outcome; bounded so a hung
	// backend cannot hang the caller forever, never retried automatically
	vctx, cancel := context.WithTimeout(ctx, o.verifyTimeout)
	defer cancel()

	result, err := o.verifier.Verify(vctx, reference)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(reference, d.ErrCodeTimeout, "payment verification timed out, please check your order status later")
		}
		return failure(reference, d.ErrCodePaymentStatusFetch, err.Error())
	}

	orderData := d.BuildOrderData(result.OrderData)

	// both conditions must hold: an id without reconcilable pricing is a
	// backend data problem, not a success
	if result.OrderID == "" || orderData == nil || orderData.Pricing.Total == "" {
		return failure(reference, d.ErrCodeInvalidResponse, "payment verification returned no usable order, please contact support")
	}

	if !d.CanTransitionTo(status, d.CheckoutStatusSuccess) {
		return failure(reference, d.ErrCodeInvalidResponse, "checkout already resolved")
	}

	outcome := Outcome{
		Status:    d.CheckoutStatusSuccess,
		Redirect:  RedirectSuccess,
		OrderID:   result.OrderID,
		Order:     orderData,
		Reference: reference,
	}
	outcome.CartWarning = o.reconcile(ctx, clientID, reference, result.OrderID, orderData)
	return outcome
}

// reconcile rotates the session and then clears the spent cart, in that
// order. The payment already succeeded server-side, so nothing here may
// block the success navigation: every step degrades to a logged warning.
func (o *Orchestrator) reconcile(ctx context.Context, clientID, reference, orderID string, orderData *d.OrderData) string {
	sessionID, err := o.sessions.Ensure(ctx, clientID)
	if err != nil {
		log.Printf("failed to read session for client %s: %v", clientID, err)
	}

	if _, err := o.sessions.Rotate(ctx, clientID); err != nil {
		log.Printf("failed to rotate session for client %s: %v", clientID, err)
	}

	var warning string
	if sessionID != "" {
		if err := o.carts.ClearCart(ctx, sessionID); err != nil {
			log.Printf("failed to clear cart for session %s: %v", sessionID, err)
			warning = "your order is confirmed, but the cart could not be cleared; please clear it manually"
		}
	}

	o.recordOrder(ctx, reference, orderID, sessionID, orderData)
	return warning
}

func (o *Orchestrator) recordOrder(ctx context.Context, reference, orderID, sessionID string, orderData *d.OrderData) {
	raw, err := json.Marshal(orderData)
	if err != nil {
		log.Printf("failed to marshal order data for reference %s: %v", reference, err)
		return
	}

	rec := &r.OrderRecord{
		ID:        uuid.New(),
		Reference: reference,
		OrderID:   orderID,
		SessionID: sessionID,
		Total:     orderData.Pricing.Total,
		Order:     raw,
	}

	err = o.repo.RecordVerifiedOrder(ctx, rec)
	if errors.Is(err, r.ErrDuplicateReference) {
		// callback revisited after success, the first visit already recorded it
		return
	}
	if err != nil {
		log.Printf("failed to record verified order for reference %s: %v", reference, err)
	}
}

func failure(reference string, code d.ErrorCode, message string) Outcome {
	return Outcome{
		Status:       d.CheckoutStatusFailure,
		Redirect:     RedirectFailure,
		Reference:    reference,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}
