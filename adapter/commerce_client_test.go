package adapter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/nilayjain12/clover-checkout-app/model"
)

const testTimeout = 2 * time.Second

func newClient(baseURL string) *CloverClient {
	return NewCloverClient(http.DefaultClient, baseURL, testTimeout)
}

func TestCloverClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v3/merchants/M1/orders", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{}`, string(body))

		_, _ = w.Write([]byte(`{"id":"O1","state":"open"}`))
	}))
	defer srv.Close()

	orderID, err := newClient(srv.URL).CreateOrder(context.Background(), "tok-1", "M1")
	require.NoError(t, err)
	require.Equal(t, "O1", orderID)
}

func TestCloverClient_AddLineItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/merchants/M1/orders/O1/line_items", r.URL.Path)

		var payload map[string]any
		require.NoError(t, sonic.ConfigFastest.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "Coffee", payload["name"])
		require.EqualValues(t, 2500, payload["price"])

		_, _ = w.Write([]byte(`{"id":"LI1"}`))
	}))
	defer srv.Close()

	lineItemID, err := newClient(srv.URL).AddLineItem(context.Background(), "tok-1", "M1", "O1", 2500, "Coffee")
	require.NoError(t, err)
	require.Equal(t, "LI1", lineItemID)
}

func TestCloverClient_CreatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/merchants/M1/payments", r.URL.Path)

		var payload map[string]any
		require.NoError(t, sonic.ConfigFastest.NewDecoder(r.Body).Decode(&payload))
		require.EqualValues(t, 2500, payload["amount"])
		require.Equal(t, "USD", payload["currency"])
		require.Equal(t, "ecom", payload["source"])
		order, ok := payload["order"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "O1", order["id"])

		_, _ = w.Write([]byte(`{"id":"P1","status":"SUCCEEDED","amount":2500}`))
	}))
	defer srv.Close()

	result, err := newClient(srv.URL).CreatePayment(context.Background(), "tok-1", "M1", "O1", 2500, "ecom")
	require.NoError(t, err)
	require.Equal(t, "P1", result.PaymentID)
	require.Equal(t, model.PaymentSucceeded, result.Status)
	require.Equal(t, int64(2500), result.Amount)
}

func TestCloverClient_GetPaymentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v3/merchants/M1/payments/P1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"P1","status":"PENDING"}`))
	}))
	defer srv.Close()

	status, err := newClient(srv.URL).GetPaymentStatus(context.Background(), "tok-1", "M1", "P1")
	require.NoError(t, err)
	require.Equal(t, model.PaymentPending, status)
}

func TestCloverClient_GetMerchantInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/merchants/M1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"M1","name":"Corner Cafe"}`))
	}))
	defer srv.Close()

	name, err := newClient(srv.URL).GetMerchantInfo(context.Background(), "tok-1", "M1")
	require.NoError(t, err)
	require.Equal(t, "Corner Cafe", name)
}

func TestCloverClient_RejectionMapsToRemoteCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"card declined"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreatePayment(context.Background(), "tok-1", "M1", "O1", 2500, "ecom")
	require.Error(t, err)

	var remote *model.RemoteCallError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, OpCreatePayment, remote.Operation)
	require.Equal(t, http.StatusPaymentRequired, remote.Status)
	require.Contains(t, remote.Body, "card declined")
}

func TestCloverClient_TransportFailureMapsToRemoteCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), "tok-1", "M1")
	require.Error(t, err)

	var remote *model.RemoteCallError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, OpCreateOrder, remote.Operation)
	require.Zero(t, remote.Status)
}

func TestCloverClient_TimeoutMapsToRemoteCallError(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewCloverClient(http.DefaultClient, srv.URL, 50*time.Millisecond)
	_, err := client.CreateOrder(context.Background(), "tok-1", "M1")
	require.Error(t, err)
	<-started

	var remote *model.RemoteCallError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, OpCreateOrder, remote.Operation)
	require.Zero(t, remote.Status)
}

func TestCloverClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), "tok-1", "M1")
	require.Error(t, err)

	var remote *model.RemoteCallError
	require.ErrorAs(t, err, &remote)
	require.Contains(t, remote.Body, "malformed response")
}
