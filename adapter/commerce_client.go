package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/nilayjain12/clover-checkout-app/model"
)

// Operation names carried inside RemoteCallError so a failed step can be
// identified from the transaction log alone.
const (
	OpCreateOrder      = "createOrder"
	OpAddLineItem      = "addLineItem"
	OpCreatePayment    = "createPayment"
	OpGetPaymentStatus = "getPaymentStatus"
	OpGetMerchantInfo  = "getMerchantInfo"
)

const maxErrorBodyBytes = 2048

// CloverClient issues the outbound calls against the Clover v3 API. It
// does no sequencing; every method is one request, one response.
type CloverClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

func NewCloverClient(client *http.Client, baseURL string, timeout time.Duration) *CloverClient {
	slog.Info("creating CloverClient", "baseURL", baseURL, "timeout", timeout)
	return &CloverClient{client: client, baseURL: baseURL, timeout: timeout}
}

type orderResponse struct {
	ID string `json:"id"`
}

type lineItemPayload struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type lineItemResponse struct {
	ID string `json:"id"`
}

type orderRef struct {
	ID string `json:"id"`
}

type paymentPayload struct {
	Order    orderRef `json:"order"`
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	Source   string   `json:"source"`
}

type merchantResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *CloverClient) CreateOrder(ctx context.Context, token, merchantID string) (string, error) {
	url := fmt.Sprintf("%s/v3/merchants/%s/orders", c.baseURL, merchantID)
	var out orderResponse
	// Clover requires an empty JSON object to open a new order.
	if err := c.doJSON(ctx, OpCreateOrder, url, token, struct{}{}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *CloverClient) AddLineItem(ctx context.Context, token, merchantID, orderID string, amount int64, description string) (string, error) {
	url := fmt.Sprintf("%s/v3/merchants/%s/orders/%s/line_items", c.baseURL, merchantID, orderID)
	var out lineItemResponse
	if err := c.doJSON(ctx, OpAddLineItem, url, token, lineItemPayload{Name: description, Price: amount}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *CloverClient) CreatePayment(ctx context.Context, token, merchantID, orderID string, amount int64, source string) (model.PaymentResult, error) {
	url := fmt.Sprintf("%s/v3/merchants/%s/payments", c.baseURL, merchantID)
	payload := paymentPayload{Order: orderRef{ID: orderID}, Amount: amount, Currency: "USD", Source: source}
	var out model.PaymentResult
	if err := c.doJSON(ctx, OpCreatePayment, url, token, payload, &out); err != nil {
		return model.PaymentResult{}, err
	}
	return out, nil
}

func (c *CloverClient) GetPaymentStatus(ctx context.Context, token, merchantID, paymentID string) (model.PaymentStatus, error) {
	url := fmt.Sprintf("%s/v3/merchants/%s/payments/%s", c.baseURL, merchantID, paymentID)
	var out model.PaymentResult
	if err := c.getJSON(ctx, OpGetPaymentStatus, url, token, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *CloverClient) GetMerchantInfo(ctx context.Context, token, merchantID string) (string, error) {
	url := fmt.Sprintf("%s/v3/merchants/%s", c.baseURL, merchantID)
	var out merchantResponse
	if err := c.getJSON(ctx, OpGetMerchantInfo, url, token, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

func (c *CloverClient) doJSON(ctx context.Context, op, url, token string, payload any, out any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return &model.RemoteCallError{Operation: op, Body: err.Error()}
	}
	return c.roundTrip(ctx, op, http.MethodPost, url, token, bytes.NewReader(body), out)
}

func (c *CloverClient) getJSON(ctx context.Context, op, url, token string, out any) error {
	return c.roundTrip(ctx, op, http.MethodGet, url, token, nil, out)
}

// roundTrip maps every failure mode, timeouts included, into a
// RemoteCallError so nothing transport-specific leaks upward.
func (c *CloverClient) roundTrip(ctx context.Context, op, method, url, token string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &model.RemoteCallError{Operation: op, Body: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		slog.Warn("remote call transport failure", "operation", op, "err", err)
		return &model.RemoteCallError{Operation: op, Body: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))
		slog.Warn("remote call rejected", "operation", op, "status", res.StatusCode)
		return &model.RemoteCallError{Operation: op, Status: res.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := sonic.ConfigFastest.NewDecoder(res.Body).Decode(out); err != nil {
			return &model.RemoteCallError{Operation: op, Status: res.StatusCode, Body: "malformed response: " + err.Error()}
		}
	}
	return nil
}
