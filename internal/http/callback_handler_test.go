package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	d "github.com/obinna-o/go_marketgate/internal/checkout/domain"
	r "github.com/obinna-o/go_marketgate/internal/checkout/repository"
	checkout "github.com/obinna-o/go_marketgate/internal/checkout/service"
	"github.com/obinna-o/go_marketgate/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierMock struct {
	result *d.VerificationResult
	err    error
	calls  int
}

func (m *verifierMock) Verify(context.Context, string) (*d.VerificationResult, error) {
	m.calls++
	return m.result, m.err
}

type sessionsMock struct{ rotations int }

func (m *sessionsMock) Ensure(context.Context, string) (string, error) { return "sess-1", nil }
func (m *sessionsMock) Rotate(context.Context, string) (string, error) {
	m.rotations++
	return "sess-2", nil
}

type cartsMock struct{ cleared int }

func (m *cartsMock) ClearCart(context.Context, string) error {
	m.cleared++
	return nil
}

type recorderMock struct{}

func (recorderMock) RecordVerifiedOrder(context.Context, *r.OrderRecord) error { return nil }

type subVerifierMock struct {
	success bool
	err     error
}

func (m *subVerifierMock) Verify(context.Context, string) (bool, error) {
	return m.success, m.err
}

type subStashMock struct {
	stash   *subscription.PlanStash
	deleted int
}

func (m *subStashMock) Put(_ context.Context, s *subscription.PlanStash) error {
	m.stash = s
	return nil
}

func (m *subStashMock) Get(context.Context, string) (*subscription.PlanStash, error) {
	if m.stash == nil {
		return nil, subscription.ErrStashNotFound
	}
	return m.stash, nil
}

func (m *subStashMock) Delete(context.Context, string) error {
	m.deleted++
	m.stash = nil
	return nil
}

type subPlansMock struct{ plan *subscription.VendorPlan }

func (m *subPlansMock) SetPlan(_ context.Context, p *subscription.VendorPlan) error {
	m.plan = p
	return nil
}

func (m *subPlansMock) GetPlan(context.Context, string) (*subscription.VendorPlan, error) {
	return m.plan, nil
}

func newCallbackRouter(v *verifierMock, sv *subVerifierMock, stash *subStashMock, plans *subPlansMock) (http.Handler, *sessionsMock, *cartsMock) {
	sessions := &sessionsMock{}
	carts := &cartsMock{}
	co := checkout.NewOrchestrator(v, sessions, carts, recorderMock{})
	so := subscription.NewOrchestrator(sv, stash, plans)
	handler := NewCallbackHandler(co, so, 5*time.Second)

	router := chi.NewRouter()
	router.Use(ClientIDMiddleware)
	router.Get("/callbacks/payment", handler.PaymentCallback)
	router.Get("/callbacks/subscription", handler.SubscriptionCallback)
	router.Post("/api/v1/subscription/stash", handler.StashPlan)
	router.Delete("/api/v1/subscription/stash", handler.AcknowledgeStash)
	return router, sessions, carts
}

func paymentResult() *d.VerificationResult {
	return &d.VerificationResult{
		OrderID: "ord_9",
		OrderData: []d.OrderProductPair{
			{
				Order:   &d.BackendOrder{BuyerInfo: &d.BuyerInfo{Name: "Ada"}, TotalPrice: 5000},
				Product: &d.BackendProduct{ID: "p1", Name: "lamp"},
			},
		},
	}
}

func TestPaymentCallback_Success(t *testing.T) {
	router, sessions, carts := newCallbackRouter(&verifierMock{result: paymentResult()}, &subVerifierMock{}, &subStashMock{}, &subPlansMock{})

	req := httptest.NewRequest(http.MethodGet, "/callbacks/payment?reference=pay_123", nil)
	req.Header.Set("X-Client-ID", "client-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var outcome checkout.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, d.CheckoutStatusSuccess, outcome.Status)
	assert.Equal(t, "ord_9", outcome.OrderID)
	assert.Equal(t, 1, sessions.rotations)
	assert.Equal(t, 1, carts.cleared)
}

func TestPaymentCallback_MissingClientID(t *testing.T) {
	verifier := &verifierMock{result: paymentResult()}
	router, _, _ := newCallbackRouter(verifier, &subVerifierMock{}, &subStashMock{}, &subPlansMock{})

	req := httptest.NewRequest(http.MethodGet, "/callbacks/payment?reference=pay_123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, verifier.calls)
}

func TestPaymentCallback_CancelledShortCircuits(t *testing.T) {
	verifier := &verifierMock{result: paymentResult()}
	router, sessions, carts := newCallbackRouter(verifier, &subVerifierMock{}, &subStashMock{}, &subPlansMock{})

	req := httptest.NewRequest(http.MethodGet, "/callbacks/payment?reference=pay_123&status=cancelled", nil)
	req.Header.Set("X-Client-ID", "client-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var outcome checkout.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, d.CheckoutStatusCancelled, outcome.Status)
	assert.Zero(t, verifier.calls)
	assert.Zero(t, sessions.rotations)
	assert.Zero(t, carts.cleared)
}

func TestPaymentCallback_NoReference(t *testing.T) {
	router, _, _ := newCallbackRouter(&verifierMock{}, &subVerifierMock{}, &subStashMock{}, &subPlansMock{})

	req := httptest.NewRequest(http.MethodGet, "/callbacks/payment", nil)
	req.Header.Set("X-Client-ID", "client-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var outcome checkout.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, d.CheckoutStatusFailure, outcome.Status)
	assert.Equal(t, d.ErrCodeNoReference, outcome.ErrorCode)
}

func TestSubscriptionFlow_StashVerifyAcknowledge(t *testing.T) {
	stash := &subStashMock{}
	plans := &subPlansMock{}
	router, _, _ := newCallbackRouter(&verifierMock{}, &subVerifierMock{success: true}, stash, plans)

	body := `{"vendor_id":"vendor-1","plan":"Shelf","billing_cycle":"yearly","amount":120,"currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription/stash", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stash.stash)

	req = httptest.NewRequest(http.MethodGet, "/callbacks/subscription?reference=sub_123&vendor_id=vendor-1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome subscription.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, d.CheckoutStatusSuccess, outcome.Status)
	require.NotNil(t, plans.plan)
	assert.Equal(t, "Shelf", plans.plan.Plan)
	assert.NotNil(t, stash.stash, "stash survives until the explicit ack")

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/subscription/stash?vendor_id=vendor-1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stash.deleted)
}

func TestSubscriptionCallback_MissingVendorID(t *testing.T) {
	router, _, _ := newCallbackRouter(&verifierMock{}, &subVerifierMock{success: true}, &subStashMock{}, &subPlansMock{})

	req := httptest.NewRequest(http.MethodGet, "/callbacks/subscription?reference=sub_123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
