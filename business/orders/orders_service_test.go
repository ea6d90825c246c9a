package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"laptopVision/domain"
	"laptopVision/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrdersRepo struct {
	orders map[uint]*domain.Order
	nextID uint
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{orders: make(map[uint]*domain.Order), nextID: 1}
}

func (f *fakeOrdersRepo) Create(_ context.Context, order *domain.Order) error {
	order.ID = f.nextID
	f.nextID++
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrdersRepo) FindByID(_ context.Context, id uint) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, errors.New("order not found")
	}
	return *o, nil
}

func (f *fakeOrdersRepo) FindByUser(_ context.Context, userID uint) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrdersRepo) FindAll(_ context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrdersRepo) AdvanceStatus(_ context.Context, orderID uint, from, to domain.FulfillmentState) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (f *fakeOrdersRepo) Cancel(_ context.Context, orderID, userID uint, reason string) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return false, nil
	}
	switch o.Status {
	case domain.OrderShipped, domain.OrderDelivered, domain.OrderCancelled:
		return false, nil
	}
	o.Status = domain.OrderCancelled
	o.CancelReason = reason
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

func newTestService() (*OrdersService, *fakeOrdersRepo, *fakeNotifier) {
	orderRepo := newFakeOrdersRepo()
	userRepo := &fakeUserRepo{users: map[uint]domain.User{
		1: {ID: 1, Name: "Rahim", Email: "rahim@example.com"},
	}}
	notifier := &fakeNotifier{}
	return NewOrdersService(orderRepo, userRepo, notifier), orderRepo, notifier
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		Items: json.RawMessage(`[{"product_id":10,"qty":2,"price":500}]`),
		ShippingAddress: domain.ShippingAddress{
			FullName:   "Rahim",
			Phone:      "01700000000",
			Address:    "House 1, Road 2",
			City:       "Dhaka",
			PostalCode: "1207",
			Country:    "Bangladesh",
		},
		PaymentMethod: domain.MethodSSLCommerz,
		ItemsPrice:    1000,
		ShippingPrice: 60,
		TotalPrice:    1060,
	}
}

func TestCreateOrder(t *testing.T) {
	svc, repo, notifier := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, created.Status)
	assert.Equal(t, domain.PaymentUnpaid, created.PaymentStatus)
	assert.Len(t, created.Items, 1)
	assert.Equal(t, uint(10), created.Items[0].ProductID)

	stored, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.UserID)

	assert.Equal(t, []string{SubjectOrderConfirmed}, notifier.sent)
}

func TestCreateOrderStringEncodedItems(t *testing.T) {
	svc, _, _ := newTestService()

	input := validInput()
	input.Items = json.RawMessage(`"[{\"product_id\":10,\"qty\":1,\"price\":1000}]"`)
	input.ItemsPrice = 1000
	input.TotalPrice = 1060

	created, err := svc.CreateOrder(context.Background(), 1, input)
	require.NoError(t, err)
	assert.Len(t, created.Items, 1)
}

func TestCreateOrderPriceMismatch(t *testing.T) {
	svc, _, _ := newTestService()

	input := validInput()
	input.TotalPrice = 999

	_, err := svc.CreateOrder(context.Background(), 1, input)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCreateOrderTotalPriceInvariantRandomized(t *testing.T) {
	svc, _, _ := newTestService()
	rng := rand.New(rand.NewPCG(42, 2026))

	for i := 0; i < 200; i++ {
		itemsPrice := float64(rng.IntN(1_000_000)) / 100
		shippingPrice := float64(rng.IntN(50_000)) / 100

		input := validInput()
		input.ItemsPrice = itemsPrice
		input.ShippingPrice = shippingPrice
		input.TotalPrice = itemsPrice + shippingPrice

		_, err := svc.CreateOrder(context.Background(), 1, input)
		require.NoError(t, err, "items=%v shipping=%v", itemsPrice, shippingPrice)

		// Skew the total by a nonzero amount; the order must be rejected.
		input.TotalPrice += float64(1+rng.IntN(10_000)) / 100
		_, err = svc.CreateOrder(context.Background(), 1, input)
		require.Error(t, err, "items=%v shipping=%v total=%v", itemsPrice, shippingPrice, input.TotalPrice)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"empty items", func(in *CreateOrderInput) { in.Items = json.RawMessage(`[]`) }},
		{"zero qty", func(in *CreateOrderInput) {
			in.Items = json.RawMessage(`[{"product_id":10,"qty":0,"price":500}]`)
		}},
		{"missing city", func(in *CreateOrderInput) { in.ShippingAddress.City = "" }},
		{"unknown method", func(in *CreateOrderInput) { in.PaymentMethod = "Barter" }},
		{"negative shipping", func(in *CreateOrderInput) {
			in.ShippingPrice = -5
			in.TotalPrice = in.ItemsPrice - 5
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.CreateOrder(context.Background(), 1, input)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestCreateOrderEmailFailureDoesNotFail(t *testing.T) {
	svc, _, notifier := newTestService()
	notifier.failAll = true

	_, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	// Legal chain: Pending -> Processing -> Shipped -> Delivered.
	for _, next := range []domain.FulfillmentState{
		domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered,
	} {
		updated, err := svc.UpdateStatus(context.Background(), created.ID, next)
		require.NoError(t, err, "advance to %s", next)
		assert.Equal(t, next, updated.Status)
	}

	// Delivered is terminal.
	_, err = svc.UpdateStatus(context.Background(), created.ID, domain.OrderProcessing)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUpdateStatusSkipRejected(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, domain.OrderShipped)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUpdateStatusCancelledRejected(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, domain.OrderCancelled)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCancelOrder(t *testing.T) {
	svc, _, notifier := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), created.ID, 1, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.Contains(t, notifier.sent, SubjectOrderCancelled)

	// Second cancel is a conflict, not a silent success.
	_, err = svc.CancelOrder(context.Background(), created.ID, 1, "again")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCancelOrderOwnerOnly(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), created.ID, 2, "not mine")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCancelOrderAfterShipment(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	repo.orders[created.ID].Status = domain.OrderShipped

	_, err = svc.CancelOrder(context.Background(), created.ID, 1, "too late")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCancelOrderRequiresReason(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), created.ID, 1, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestGetOrderAccess(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreateOrder(context.Background(), 1, validInput())
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), created.ID, 1, false)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), created.ID, 2, true)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), created.ID, 2, false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestNormalizeLineItemsMany(t *testing.T) {
	items := make([]string, 0, 25)
	for i := 1; i <= 25; i++ {
		items = append(items, fmt.Sprintf(`{"product_id":%d,"qty":%d,"price":%d}`, i, i%3+1, i*10))
	}
	raw := json.RawMessage("[" + joinComma(items) + "]")

	normalized, err := normalizeLineItems(raw)
	require.NoError(t, err)
	assert.Len(t, normalized, 25)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
