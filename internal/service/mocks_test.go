package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nilayjain12/clover-checkout-app/model"
)

type CommerceClientMock struct {
	mock.Mock
}

func (m *CommerceClientMock) CreateOrder(ctx context.Context, token, merchantID string) (string, error) {
	args := m.Called(ctx, token, merchantID)
	return args.String(0), args.Error(1)
}

func (m *CommerceClientMock) AddLineItem(ctx context.Context, token, merchantID, orderID string, amount int64, description string) (string, error) {
	args := m.Called(ctx, token, merchantID, orderID, amount, description)
	return args.String(0), args.Error(1)
}

func (m *CommerceClientMock) CreatePayment(ctx context.Context, token, merchantID, orderID string, amount int64, source string) (model.PaymentResult, error) {
	args := m.Called(ctx, token, merchantID, orderID, amount, source)
	return args.Get(0).(model.PaymentResult), args.Error(1)
}

func (m *CommerceClientMock) GetPaymentStatus(ctx context.Context, token, merchantID, paymentID string) (model.PaymentStatus, error) {
	args := m.Called(ctx, token, merchantID, paymentID)
	return args.Get(0).(model.PaymentStatus), args.Error(1)
}
