package subscription

import (
	"context"
	"errors"
	"log"
	"time"

	d "github.com/obinna-o/go_marketgate/internal/checkout/domain"
)

// Redirect targets for the subscription terminal views.
const (
	RedirectSuccess = "/subscription/success"
	RedirectFailure = "/subscription/failure"
	RedirectPlans   = "/vendor/plans"
)

const (
	StatusCancelled      = "cancelled"
	DefaultVerifyTimeout = 30 * time.Second
)

type Verifier interface {
	Verify(ctx context.Context, reference string) (bool, error)
}

type CallbackParams struct {
	Reference string
	Status    string
	TxRef     string
}

// Outcome is the terminal result of one subscription callback visit. The
// stash stays in place on every failure so the failure view can offer a
// retry with the same plan parameters.
type Outcome struct {
	Status       d.CheckoutStatus `json:"state"`
	Redirect     string           `json:"redirect"`
	Plan         *VendorPlan      `json:"plan,omitempty"`
	Reference    string           `json:"reference,omitempty"`
	ErrorCode    d.ErrorCode      `json:"errorCode,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	PlanWarning  string           `json:"planWarning,omitempty"`
}

// Orchestrator mirrors the checkout state machine for vendor plan upgrades:
// verify the reference, and on success promote the stashed plan selection
// into the vendor's cached plan. The stash itself is removed only by the
// explicit acknowledgement call, never here.
type Orchestrator struct {
	verifier      Verifier
	stash         StashStore
	plans         PlanCache
	verifyTimeout time.Duration
}

func NewOrchestrator(verifier Verifier, stash StashStore, plans PlanCache) *Orchestrator {
	return &Orchestrator{
		verifier:      verifier,
		stash:         stash,
		plans:         plans,
		verifyTimeout: DefaultVerifyTimeout,
	}
}

func (o *Orchestrator) HandleCallback(ctx context.Context, vendorID string, params CallbackParams) *Outcome {
	if params.Status == StatusCancelled {
		return &Outcome{
			Status:    d.CheckoutStatusCancelled,
			Redirect:  RedirectPlans,
			Reference: params.Reference,
		}
	}

	reference := params.Reference
	if reference == "" {
		reference = params.TxRef
	}
	if reference == "" {
		return failure("", d.ErrCodeNoReference, "no payment reference found in callback")
	}

	vctx, cancel := context.WithTimeout(ctx, o.verifyTimeout)
	defer cancel()

	ok, err := o.verifier.Verify(vctx, reference)
	if err != nil {
		code := d.ErrCodePaymentStatusFetch
		if errors.Is(err, context.DeadlineExceeded) {
			code = d.ErrCodeTimeout
		}
		return failure(reference, code, err.Error())
	}
	if !ok {
		return failure(reference, d.ErrCodeInvalidResponse, "payment could not be confirmed")
	}

	stash, err := o.stash.Get(ctx, vendorID)
	if err != nil {
		// paid, but nothing tells us which plan was bought
		return failure(reference, d.ErrCodeInvalidResponse, "no stashed plan selection for this payment")
	}

	plan := &VendorPlan{
		VendorID:     vendorID,
		Plan:         stash.Plan,
		BillingCycle: stash.BillingCycle,
		Categories:   stash.Categories,
		UpgradedAt:   time.Now().UTC(),
	}

	outcome := &Outcome{
		Status:    d.CheckoutStatusSuccess,
		Redirect:  RedirectSuccess,
		Plan:      plan,
		Reference: reference,
	}

	if err := o.plans.SetPlan(ctx, plan); err != nil {
		// upgrade already succeeded server-side, the cache catches up later
		log.Printf("failed to update cached plan for vendor %s: %v", vendorID, err)
		outcome.PlanWarning = "your upgrade is confirmed, but the plan display may take a moment to refresh"
	}

	return outcome
}

// Stash records the plan selection ahead of the redirect to the payment
// provider.
func (o *Orchestrator) Stash(ctx context.Context, stash *PlanStash) error {
	return o.stash.Put(ctx, stash)
}

// Acknowledge removes the stashed plan selection once the vendor leaves the
// terminal view.
func (o *Orchestrator) Acknowledge(ctx context.Context, vendorID string) error {
	return o.stash.Delete(ctx, vendorID)
}

func failure(reference string, code d.ErrorCode, message string) *Outcome {
	return &Outcome{
		Status:       d.CheckoutStatusFailure,
		Redirect:     RedirectFailure,
		Reference:    reference,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}
