package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"laptopVision/domain"
	"laptopVision/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrdersRepo struct {
	orders map[uint]*domain.Order
}

func (f *fakeOrdersRepo) FindByID(_ context.Context, id uint) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, errors.New("order not found")
	}
	return *o, nil
}

func (f *fakeOrdersRepo) SetTransactionID(_ context.Context, orderID uint, txnID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	o.TransactionID = txnID
	return nil
}

func (f *fakeOrdersRepo) MarkPaid(_ context.Context, orderID uint, paidAt time.Time) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.TransactionID == "" || o.PaymentStatus == domain.PaymentPaid {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentPaid
	o.IsPaid = true
	o.PaidAt = &paidAt
	return true, nil
}

func (f *fakeOrdersRepo) MarkPaymentFailed(_ context.Context, orderID uint) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.TransactionID == "" || o.PaymentStatus != domain.PaymentUnpaid {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentFailed
	return true, nil
}

func (f *fakeOrdersRepo) EnsureUnpaid(_ context.Context, orderID uint) error {
	o, ok := f.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	if o.PaymentStatus != domain.PaymentPaid {
		o.PaymentStatus = domain.PaymentUnpaid
	}
	return nil
}

func (f *fakeOrdersRepo) ConfirmCOD(_ context.Context, orderID uint) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Status != domain.OrderPending {
		return false, nil
	}
	o.PaymentMethod = domain.MethodCOD
	return true, nil
}

type fakeUserRepo struct {
	users map[uint]domain.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}
	return u, nil
}

type fakeGateway struct {
	calls   int
	lastTxn string
	failAll bool
}

func (f *fakeGateway) CreateSession(_ context.Context, order domain.Order, _ domain.User, txnID string) (string, error) {
	f.calls++
	f.lastTxn = txnID
	if f.failAll {
		return "", errors.New("gateway unreachable")
	}
	return "https://sandbox.sslcommerz.com/checkout/" + txnID, nil
}

type fakeNotifier struct {
	sent    []string
	failAll bool
}

func (f *fakeNotifier) SendEmail(_, _, subject, _ string) error {
	if f.failAll {
		return errors.New("mailer down")
	}
	f.sent = append(f.sent, subject)
	return nil
}

func newTestService(orders map[uint]*domain.Order) (*PaymentsService, *fakeOrdersRepo, *fakeGateway, *fakeNotifier) {
	orderRepo := &fakeOrdersRepo{orders: orders}
	userRepo := &fakeUserRepo{users: map[uint]domain.User{
		1: {ID: 1, Name: "Karim", Email: "karim@example.com"},
	}}
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}
	return NewPaymentsService(orderRepo, userRepo, gateway, notifier), orderRepo, gateway, notifier
}

func pendingOrder(method string) map[uint]*domain.Order {
	return map[uint]*domain.Order{
		7: {
			ID:            7,
			UserID:        1,
			PaymentMethod: method,
			Status:        domain.OrderPending,
			PaymentStatus: domain.PaymentUnpaid,
			TotalPrice:    1060,
		},
	}
}

// sessionOrder is pendingOrder after a gateway session was initiated: the
// transaction id is already on the row, as callbacks expect.
func sessionOrder(method string) map[uint]*domain.Order {
	orders := pendingOrder(method)
	orders[7].TransactionID = "txn_1_ab"
	return orders
}

func TestInitiateSession(t *testing.T) {
	svc, repo, gateway, _ := newTestService(pendingOrder(domain.MethodSSLCommerz))

	url, err := svc.InitiateSession(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://sandbox.sslcommerz.com/checkout/"))

	// Transaction id is on the order row before the gateway saw it.
	assert.NotEmpty(t, repo.orders[7].TransactionID)
	assert.Equal(t, repo.orders[7].TransactionID, gateway.lastTxn)
}

func TestInitiateSessionOwnerOnly(t *testing.T) {
	svc, _, gateway, _ := newTestService(pendingOrder(domain.MethodSSLCommerz))

	_, err := svc.InitiateSession(context.Background(), 7, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Zero(t, gateway.calls)
}

func TestInitiateSessionCODRejected(t *testing.T) {
	svc, _, _, _ := newTestService(pendingOrder(domain.MethodCOD))

	_, err := svc.InitiateSession(context.Background(), 7, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestInitiateSessionAlreadyPaid(t *testing.T) {
	orders := pendingOrder(domain.MethodSSLCommerz)
	orders[7].PaymentStatus = domain.PaymentPaid

	svc, _, _, _ := newTestService(orders)

	_, err := svc.InitiateSession(context.Background(), 7, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestInitiateSessionGatewayFailure(t *testing.T) {
	svc, repo, gateway, _ := newTestService(pendingOrder(domain.MethodSSLCommerz))
	gateway.failAll = true

	_, err := svc.InitiateSession(context.Background(), 7, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))

	// The order survives as retryable.
	assert.Equal(t, domain.PaymentUnpaid, repo.orders[7].PaymentStatus)

	gateway.failAll = false
	_, err = svc.InitiateSession(context.Background(), 7, 1)
	assert.NoError(t, err)
}

func TestHandleSuccessIdempotent(t *testing.T) {
	svc, repo, _, notifier := newTestService(sessionOrder(domain.MethodSSLCommerz))

	require.NoError(t, svc.HandleSuccess(context.Background(), 7))
	assert.Equal(t, domain.PaymentPaid, repo.orders[7].PaymentStatus)
	assert.True(t, repo.orders[7].IsPaid)
	require.NotNil(t, repo.orders[7].PaidAt)
	firstPaidAt := *repo.orders[7].PaidAt

	// Replay: no state change, no second email.
	require.NoError(t, svc.HandleSuccess(context.Background(), 7))
	assert.Equal(t, firstPaidAt, *repo.orders[7].PaidAt)
	assert.Equal(t, []string{SubjectPaymentSuccessful}, notifier.sent)
}

func TestHandleFailIdempotent(t *testing.T) {
	svc, repo, _, notifier := newTestService(sessionOrder(domain.MethodSSLCommerz))

	require.NoError(t, svc.HandleFail(context.Background(), 7))
	assert.Equal(t, domain.PaymentFailed, repo.orders[7].PaymentStatus)

	require.NoError(t, svc.HandleFail(context.Background(), 7))
	assert.Equal(t, []string{SubjectPaymentFailed}, notifier.sent)
}

func TestHandleFailAfterSuccessIgnored(t *testing.T) {
	svc, repo, _, _ := newTestService(sessionOrder(domain.MethodSSLCommerz))

	require.NoError(t, svc.HandleSuccess(context.Background(), 7))
	require.NoError(t, svc.HandleFail(context.Background(), 7))

	assert.Equal(t, domain.PaymentPaid, repo.orders[7].PaymentStatus)
}

func TestHandleSuccessWithoutSessionIgnored(t *testing.T) {
	svc, repo, _, notifier := newTestService(pendingOrder(domain.MethodCOD))

	// No session was ever initiated, so there is no transaction id to match.
	require.NoError(t, svc.HandleSuccess(context.Background(), 7))

	assert.Equal(t, domain.PaymentUnpaid, repo.orders[7].PaymentStatus)
	assert.False(t, repo.orders[7].IsPaid)
	assert.Empty(t, notifier.sent)
}

func TestHandleFailWithoutSessionIgnored(t *testing.T) {
	svc, repo, _, notifier := newTestService(pendingOrder(domain.MethodSSLCommerz))

	require.NoError(t, svc.HandleFail(context.Background(), 7))

	assert.Equal(t, domain.PaymentUnpaid, repo.orders[7].PaymentStatus)
	assert.Empty(t, notifier.sent)
}

func TestHandleCancelKeepsOrderRetryable(t *testing.T) {
	svc, repo, _, _ := newTestService(sessionOrder(domain.MethodSSLCommerz))

	require.NoError(t, svc.HandleFail(context.Background(), 7))
	require.NoError(t, svc.HandleCancel(context.Background(), 7))
	assert.Equal(t, domain.PaymentUnpaid, repo.orders[7].PaymentStatus)

	_, err := svc.InitiateSession(context.Background(), 7, 1)
	assert.NoError(t, err)
}

func TestHandleCancelMissingOrderNotFatal(t *testing.T) {
	svc, _, _, _ := newTestService(pendingOrder(domain.MethodSSLCommerz))

	assert.NoError(t, svc.HandleCancel(context.Background(), 999))
}

func TestConfirmCOD(t *testing.T) {
	svc, repo, _, _ := newTestService(pendingOrder(domain.MethodCOD))

	confirmed, err := svc.ConfirmCOD(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodCOD, confirmed.PaymentMethod)
	assert.Equal(t, domain.PaymentUnpaid, confirmed.PaymentStatus)
	assert.Equal(t, domain.OrderPending, confirmed.Status)

	// COD confirm requires the order to still be pending.
	repo.orders[7].Status = domain.OrderCancelled
	_, err = svc.ConfirmCOD(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestNotificationFailureNeverBlocksPayment(t *testing.T) {
	svc, repo, _, notifier := newTestService(sessionOrder(domain.MethodSSLCommerz))
	notifier.failAll = true

	require.NoError(t, svc.HandleSuccess(context.Background(), 7))
	assert.Equal(t, domain.PaymentPaid, repo.orders[7].PaymentStatus)
}
