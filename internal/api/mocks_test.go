package api

import (
	"context"

	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/notify"

	"github.com/stretchr/testify/mock"
)

type MockCashdesk struct {
	mock.Mock
}

func result(args mock.Arguments) (*lakala.Result, error) {
	res, _ := args.Get(0).(*lakala.Result)
	return res, args.Error(1)
}

func (m *MockCashdesk) CounterOrderSpecialCreate(ctx context.Context, outOrderNo string, totalAmount int64, orderInfo string, extra lakala.Extra) (*lakala.Result, error) {
	return result(m.Called(ctx, outOrderNo, totalAmount, orderInfo, extra))
}

func (m *MockCashdesk) CounterOrderQuery(ctx context.Context, outOrderNo, payOrderNo, channelID string) (*lakala.Result, error) {
	return result(m.Called(ctx, outOrderNo, payOrderNo, channelID))
}

func (m *MockCashdesk) CounterOrderClose(ctx context.Context, outOrderNo, payOrderNo, channelID string) (*lakala.Result, error) {
	return result(m.Called(ctx, outOrderNo, payOrderNo, channelID))
}

func (m *MockCashdesk) TradeOrderRefund(ctx context.Context, outTradeNo string, refundAmount int64, requestIP string) (*lakala.Result, error) {
	return result(m.Called(ctx, outTradeNo, refundAmount, requestIP))
}

func (m *MockCashdesk) OrderRefundQuery(ctx context.Context, outTradeNo, tradeNo string) (*lakala.Result, error) {
	return result(m.Called(ctx, outTradeNo, tradeNo))
}

type MockScan struct {
	mock.Mock
}

func (m *MockScan) TransPreorder(ctx context.Context, p lakala.Payment) (*lakala.Result, error) {
	return result(m.Called(ctx, p))
}

func (m *MockScan) TransMicropay(ctx context.Context, p lakala.Payment) (*lakala.Result, error) {
	return result(m.Called(ctx, p))
}

func (m *MockScan) QueryTradeQuery(ctx context.Context, outTradeNo, tradeNo string) (*lakala.Result, error) {
	return result(m.Called(ctx, outTradeNo, tradeNo))
}

func (m *MockScan) RelationClose(ctx context.Context, originOutTradeNo, originTradeNo, requestIP string) (*lakala.Result, error) {
	return result(m.Called(ctx, originOutTradeNo, originTradeNo, requestIP))
}

func (m *MockScan) RelationRevoked(ctx context.Context, outTradeNo, originOutTradeNo, originTradeNo, requestIP string) (*lakala.Result, error) {
	return result(m.Called(ctx, outTradeNo, originOutTradeNo, originTradeNo, requestIP))
}

func (m *MockScan) RelationRefund(ctx context.Context, outTradeNo string, refundAmount int64, requestIP string, extra lakala.Extra) (*lakala.Result, error) {
	return result(m.Called(ctx, outTradeNo, refundAmount, requestIP, extra))
}

func (m *MockScan) RelationIdmRefund(ctx context.Context, outRefundOrderNo string, refundAmount int64, requestIP string, extra lakala.Extra) (*lakala.Result, error) {
	return result(m.Called(ctx, outRefundOrderNo, refundAmount, requestIP, extra))
}

func (m *MockScan) QueryIdmRefundQuery(ctx context.Context, outRefundOrderNo string) (*lakala.Result, error) {
	return result(m.Called(ctx, outRefundOrderNo))
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListByOrderNo(ctx context.Context, orderNo string) ([]notify.Record, error) {
	args := m.Called(ctx, orderNo)
	records, _ := args.Get(0).([]notify.Record)
	return records, args.Error(1)
}
