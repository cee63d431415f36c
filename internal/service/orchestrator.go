package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nilayjain12/clover-checkout-app/internal/storage"
	"github.com/nilayjain12/clover-checkout-app/model"
)

// CommerceClient is the slice of the remote API the orchestrator drives.
type CommerceClient interface {
	CreateOrder(ctx context.Context, token, merchantID string) (string, error)
	AddLineItem(ctx context.Context, token, merchantID, orderID string, amount int64, description string) (string, error)
	CreatePayment(ctx context.Context, token, merchantID, orderID string, amount int64, source string) (model.PaymentResult, error)
	GetPaymentStatus(ctx context.Context, token, merchantID, paymentID string) (model.PaymentStatus, error)
}

// attemptState tracks how far one checkout attempt got. The progression
// is strictly linear; there is no rollback transition, so a remote order
// created before a later step fails stays orphaned on the platform.
type attemptState string

const (
	stateReceived         attemptState = "received"
	stateValidated        attemptState = "validated"
	stateOrderCreated     attemptState = "order_created"
	stateLineItemAdded    attemptState = "line_item_added"
	statePaymentAttempted attemptState = "payment_attempted"
	stateSucceeded        attemptState = "succeeded"
	stateFailed           attemptState = "failed"
)

const defaultPaymentSource = "ecom"

// Orchestrator turns one CheckoutRequest into the three-call remote
// sequence and exactly one transaction record, whatever happens.
type Orchestrator struct {
	store  storage.CredentialStore
	client CommerceClient
	log    storage.TransactionLog
	source string
}

func NewOrchestrator(store storage.CredentialStore, client CommerceClient, log storage.TransactionLog) *Orchestrator {
	return &Orchestrator{store: store, client: client, log: log, source: defaultPaymentSource}
}

// ProcessPayment runs one attempt to completion or to its first failure.
// The returned record has already been appended to the log; the error,
// when non-nil, classifies the failure for the HTTP boundary.
func (o *Orchestrator) ProcessPayment(ctx context.Context, req model.CheckoutRequest) (model.TransactionRecord, error) {
	rec := model.TransactionRecord{
		Timestamp:   time.Now().UTC(),
		Amount:      req.Amount,
		Currency:    "USD",
		Description: req.Description,
	}

	if err := req.Validate(); err != nil {
		return o.fail(ctx, rec, stateReceived, err)
	}

	cred, err := o.store.Load(ctx)
	if err != nil {
		return o.fail(ctx, rec, stateReceived, fmt.Errorf("%w: loading credential: %v", model.ErrNotAuthenticated, err))
	}
	if cred.Expired(time.Now().UTC()) {
		return o.fail(ctx, rec, stateReceived, model.ErrNotAuthenticated)
	}

	state := stateValidated

	orderID, err := o.client.CreateOrder(ctx, cred.AccessToken, cred.MerchantID)
	if err != nil {
		return o.fail(ctx, rec, state, err)
	}
	state = stateOrderCreated
	rec.OrderID = orderID

	if _, err := o.client.AddLineItem(ctx, cred.AccessToken, cred.MerchantID, orderID, req.Amount, req.Description); err != nil {
		// The order already exists remotely; it is left orphaned.
		return o.fail(ctx, rec, state, err)
	}
	state = stateLineItemAdded

	payment, err := o.client.CreatePayment(ctx, cred.AccessToken, cred.MerchantID, orderID, req.Amount, o.source)
	if err != nil {
		return o.fail(ctx, rec, state, err)
	}
	state = statePaymentAttempted
	rec.PaymentID = payment.PaymentID

	status := payment.Status
	if confirmed, err := o.client.GetPaymentStatus(ctx, cred.AccessToken, cred.MerchantID, payment.PaymentID); err == nil && confirmed != "" {
		status = confirmed
	} else if err != nil {
		slog.Warn("payment status verification failed, keeping creation status", "payment_id", payment.PaymentID, "err", err)
	}

	switch status {
	case model.PaymentSucceeded, model.PaymentPending:
		state = stateSucceeded
		rec.Status = model.RecordStatusSuccess
	default:
		state = stateFailed
		rec.Status = model.RecordStatusFailed
		rec.ErrorDetail = fmt.Sprintf("payment finished with status %s", status)
	}

	if err := o.log.Append(ctx, rec); err != nil {
		slog.Error("failed to append transaction record", "err", err)
		return rec, err
	}

	slog.Info("checkout attempt finished",
		"state", state, "status", rec.Status, "order_id", rec.OrderID, "payment_id", rec.PaymentID, "amount", rec.Amount)
	return rec, nil
}

// fail finalizes an attempt on any exit path before success: it stamps
// the record, appends it, and hands the classified error back.
func (o *Orchestrator) fail(ctx context.Context, rec model.TransactionRecord, state attemptState, cause error) (model.TransactionRecord, error) {
	rec.Status = model.RecordStatusFailed
	rec.ErrorDetail = cause.Error()

	if err := o.log.Append(ctx, rec); err != nil {
		slog.Error("failed to append transaction record", "err", err, "cause", cause)
	}

	slog.Info("checkout attempt failed", "state", state, "amount", rec.Amount, "err", cause)
	return rec, cause
}
