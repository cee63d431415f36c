package handler

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/nilayjain12/clover-checkout-app/internal/storage"
	"github.com/nilayjain12/clover-checkout-app/model"
)

const transactionHistoryLimit = 10

// AuthFlow is what the handler needs from the OAuth flow.
type AuthFlow interface {
	AuthorizationURL() (string, error)
	HandleCallback(ctx context.Context, code, state, merchantID string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) (bool, string, error)
}

// PaymentProcessor is what the handler needs from the orchestrator.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req model.CheckoutRequest) (model.TransactionRecord, error)
}

type CheckoutHandler struct {
	flow      AuthFlow
	processor PaymentProcessor
	log       storage.TransactionLog
}

func NewCheckoutHandler(flow AuthFlow, processor PaymentProcessor, log storage.TransactionLog) *CheckoutHandler {
	return &CheckoutHandler{flow: flow, processor: processor, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *CheckoutHandler) Login(c *fiber.Ctx) error {
	authURL, err := h.flow.AuthorizationURL()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	return c.Redirect(authURL, fiber.StatusFound)
}

func (h *CheckoutHandler) Callback(c *fiber.Ctx) error {
	if upstreamErr := c.Query("error"); upstreamErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "authorization refused: " + upstreamErr})
	}

	err := h.flow.HandleCallback(c.Context(), c.Query("code"), c.Query("state"), c.Query("merchant_id"))
	if err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, model.ErrStateMismatch) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(errorResponse{Error: err.Error()})
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *CheckoutHandler) Logout(c *fiber.Ctx) error {
	if err := h.flow.Logout(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	return c.Redirect("/", fiber.StatusFound)
}

type statusResponse struct {
	Authenticated bool   `json:"authenticated"`
	MerchantID    string `json:"merchant_id,omitempty"`
}

func (h *CheckoutHandler) Status(c *fiber.Ctx) error {
	authenticated, merchantID, err := h.flow.Status(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	return c.JSON(statusResponse{Authenticated: authenticated, MerchantID: merchantID})
}

func (h *CheckoutHandler) Payment(c *fiber.Ctx) error {
	var req model.CheckoutRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "malformed request body"})
	}

	rec, err := h.processor.ProcessPayment(c.Context(), req)
	return c.Status(paymentStatusCode(err)).JSON(rec)
}

// paymentStatusCode maps the error taxonomy onto HTTP. A rejected remote
// call surfaces its upstream status when it carries one.
func paymentStatusCode(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, model.ErrValidationFailed):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	}
	var remote *model.RemoteCallError
	if errors.As(err, &remote) && remote.Status >= 400 {
		return remote.Status
	}
	return fiber.StatusBadGateway
}

type transactionsResponse struct {
	Transactions []model.TransactionRecord `json:"transactions"`
}

func (h *CheckoutHandler) Transactions(c *fiber.Ctx) error {
	records, err := h.log.Recent(c.Context(), transactionHistoryLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to retrieve transaction history"})
	}
	if records == nil {
		records = []model.TransactionRecord{}
	}
	return c.JSON(transactionsResponse{Transactions: records})
}

type healthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Authenticated bool      `json:"authenticated"`
}

// Health reports liveness regardless of authentication state.
func (h *CheckoutHandler) Health(c *fiber.Ctx) error {
	authenticated, _, _ := h.flow.Status(c.Context())
	return c.JSON(healthResponse{Status: "ok", Timestamp: time.Now().UTC(), Authenticated: authenticated})
}
