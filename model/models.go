package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Credential is the single OAuth credential held by the process. It is
// replaced wholesale on re-authentication, never mutated in place.
type Credential struct {
	MerchantID  string    `json:"merchant_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ObtainedAt  time.Time `json:"obtained_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiryBuffer is subtracted from the upstream expiry so a token is
// retired before Clover actually rejects it.
const ExpiryBuffer = 5 * time.Minute

func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(-ExpiryBuffer))
}

// CheckoutRequest is one user-submitted payment attempt. Amount is in
// minor currency units (cents).
type CheckoutRequest struct {
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (r CheckoutRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidationFailed)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", ErrValidationFailed)
	}
	return nil
}

// PaymentStatus is the status reported by the remote platform.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentPending   PaymentStatus = "PENDING"
)

// PaymentResult is the immutable outcome of the final remote call.
type PaymentResult struct {
	PaymentID string        `json:"id"`
	Status    PaymentStatus `json:"status"`
	Amount    int64         `json:"amount"`
	CreatedAt int64         `json:"createdTime"`
}

const (
	RecordStatusSuccess = "success"
	RecordStatusFailed  = "failed"
)

// TransactionRecord is the durable, append-only outcome entry for one
// checkout attempt. Exactly one is written per attempt.
type TransactionRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	OrderID     string    `json:"order_id,omitempty"`
	PaymentID   string    `json:"payment_id,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
}

var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAuthExchangeFailed = errors.New("auth exchange failed")
)

// ErrStateMismatch marks a callback whose state nonce is missing or does
// not match an issued one. It is a kind of auth exchange failure.
var ErrStateMismatch = fmt.Errorf("%w: state mismatch", ErrAuthExchangeFailed)

// RemoteCallError is the uniform failure for any outbound commerce call,
// including timeouts (Status 0 means the call never got a response).
type RemoteCallError struct {
	Operation string
	Status    int
	Body      string
}

func (e *RemoteCallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: remote call failed: %s", e.Operation, e.Body)
	}
	return fmt.Sprintf("%s: remote call failed: status=%d body=%s", e.Operation, e.Status, e.Body)
}
