package http

import (
	"encoding/json"
	"net/http"
	"time"

	checkout "github.com/obinna-o/go_marketgate/internal/checkout/service"
	"github.com/obinna-o/go_marketgate/internal/subscription"
)

// CallbackHandler terminates payment-provider redirects. The provider calls
// these URLs with the outcome of an external payment attempt; the response
// tells the storefront which terminal view to show.
type CallbackHandler struct {
	checkout      *checkout.Orchestrator
	subscriptions *subscription.Orchestrator
	timeout       time.Duration
}

func NewCallbackHandler(co *checkout.Orchestrator, so *subscription.Orchestrator, timeout time.Duration) *CallbackHandler {
	return &CallbackHandler{
		checkout:      co,
		subscriptions: so,
		timeout:       timeout,
	}
}

func (h *CallbackHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, h.timeout)
	defer cancel()

	clientID := getClientID(r.Context())
	if clientID == "" {
		respondError(w, http.StatusBadRequest, "client_required", "missing X-Client-ID header")
		return
	}

	q := r.URL.Query()
	outcome := h.checkout.HandleCallback(ctx, clientID, checkout.CallbackParams{
		Reference: q.Get("reference"),
		Status:    q.Get("status"),
		TxRef:     q.Get("tx_ref"),
	})

	respondJSON(w, http.StatusOK, outcome)
}

func (h *CallbackHandler) SubscriptionCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, h.timeout)
	defer cancel()

	q := r.URL.Query()
	vendorID := q.Get("vendor_id")
	if vendorID == "" {
		respondError(w, http.StatusBadRequest, "vendor_required", "missing vendor_id")
		return
	}

	outcome := h.subscriptions.HandleCallback(ctx, vendorID, subscription.CallbackParams{
		Reference: q.Get("reference"),
		Status:    q.Get("status"),
		TxRef:     q.Get("tx_ref"),
	})

	respondJSON(w, http.StatusOK, outcome)
}

// StashPlan records the plan selection before the vendor is redirected to
// the payment provider.
func (h *CallbackHandler) StashPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, h.timeout)
	defer cancel()

	var stash subscription.PlanStash
	if err := json.NewDecoder(r.Body).Decode(&stash); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if stash.VendorID == "" {
		respondError(w, http.StatusBadRequest, "vendor_required", "vendor_id is required")
		return
	}

	if err := h.subscriptions.Stash(ctx, &stash); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "stashed"})
}

// AcknowledgeStash removes the stashed plan once the vendor navigates away
// from the terminal views.
func (h *CallbackHandler) AcknowledgeStash(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, h.timeout)
	defer cancel()

	vendorID := r.URL.Query().Get("vendor_id")
	if vendorID == "" {
		respondError(w, http.StatusBadRequest, "vendor_required", "missing vendor_id")
		return
	}

	if err := h.subscriptions.Acknowledge(ctx, vendorID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
