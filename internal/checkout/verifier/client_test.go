package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/verify", r.URL.Path)
		assert.Equal(t, "pay_123", r.URL.Query().Get("reference"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"orderId": "ord_9",
			"orderData": [
				{
					"order": {"buyerInfo": {"name": "Ada"}, "totalPrice": 5000},
					"product": {"_id": "p1", "name": "lamp", "price": 5000, "images": ["a.jpg"]}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.Verify(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "ord_9", result.OrderID)
	require.Len(t, result.OrderData, 1)
	assert.Equal(t, 5000.0, result.OrderData[0].Order.TotalPrice)
	assert.Equal(t, "p1", result.OrderData[0].Product.ID)
}

func TestVerify_BackendMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "unknown payment reference"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "pay_bad")
	require.ErrorContains(t, err, "unknown payment reference")
}

func TestVerify_GenericFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "pay_bad")
	require.ErrorContains(t, err, "status 500")
}

func TestVerify_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Verify(ctx, "pay_slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVerify_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderId": `))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "pay_123")
	require.ErrorContains(t, err, "decode verification response")
}
