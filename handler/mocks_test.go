package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nilayjain12/clover-checkout-app/model"
)

type AuthFlowMock struct {
	mock.Mock
}

func (m *AuthFlowMock) AuthorizationURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *AuthFlowMock) HandleCallback(ctx context.Context, code, state, merchantID string) error {
	args := m.Called(ctx, code, state, merchantID)
	return args.Error(0)
}

func (m *AuthFlowMock) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthFlowMock) Status(ctx context.Context) (bool, string, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.String(1), args.Error(2)
}

type PaymentProcessorMock struct {
	mock.Mock
}

func (m *PaymentProcessorMock) ProcessPayment(ctx context.Context, req model.CheckoutRequest) (model.TransactionRecord, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.TransactionRecord), args.Error(1)
}
