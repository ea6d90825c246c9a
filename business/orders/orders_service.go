package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"laptopVision/domain"
	"laptopVision/pkg/apperr"
	"laptopVision/pkg/logger"
	"laptopVision/pkg/metrics"
	"math"
	"time"
)

// OrdersRepository contract interface
type OrdersRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint) (domain.Order, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	AdvanceStatus(ctx context.Context, orderID uint, from, to domain.FulfillmentState) (bool, error)
	Cancel(ctx context.Context, orderID, userID uint, reason string) (bool, error)
}

// UserRepository contract interface
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendEmail(toName, toEmail, subject, htmlBody string) error
}

const (
	SubjectOrderConfirmed = "Order Confirmed"
	SubjectOrderCancelled = "Order Cancelled"

	emailBodyOrderConfirmed = `<h2>Order Confirmed!</h2><p>Hi %v,</p><p>Your order <b>#%v</b> for a total of %.2f has been placed.</p><p>Thank you for shopping with us!</p>`
	emailBodyOrderCancelled = `<h2>Order Cancelled</h2><p>Hi %v,</p><p>Your order <b>#%v</b> has been cancelled.</p><p>Reason: %v</p>`
)

type OrdersService struct {
	orderRepo OrdersRepository
	userRepo  UserRepository
	notifRepo NotificationRepository
}

func NewOrdersService(orderRepo OrdersRepository, userRepo UserRepository, notifRepo NotificationRepository) *OrdersService {
	return &OrdersService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
	}
}

// CreateOrderInput carries the client payload. Items may arrive either as a
// structured array or as a JSON-encoded string (form clients serialize it);
// both normalize to {product, qty, price} triples.
type CreateOrderInput struct {
	Items           json.RawMessage
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	ItemsPrice      float64
	ShippingPrice   float64
	TotalPrice      float64
}

type lineItem struct {
	ProductID uint    `json:"product_id"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

func normalizeLineItems(raw json.RawMessage) ([]domain.OrderItem, error) {
	if len(raw) == 0 {
		return nil, apperr.InvalidInput("order items are required")
	}

	var items []lineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		// Form clients send the array as a string; unwrap and retry.
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, apperr.InvalidInput("malformed order items")
		}
		if err := json.Unmarshal([]byte(encoded), &items); err != nil {
			return nil, apperr.InvalidInput("malformed order items")
		}
	}

	if len(items) == 0 {
		return nil, apperr.InvalidInput("order items are required")
	}

	normalized := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Qty <= 0 || item.Price < 0 {
			return nil, apperr.InvalidInput("malformed order items")
		}
		normalized = append(normalized, domain.OrderItem{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			Price:     item.Price,
		})
	}

	return normalized, nil
}

func validateShippingAddress(addr domain.ShippingAddress) error {
	switch "" {
	case addr.FullName, addr.Phone, addr.Address, addr.City, addr.PostalCode, addr.Country:
		return apperr.InvalidInput("shipping address is incomplete")
	}
	return nil
}

// CreateOrder persists a new order in Pending/Unpaid state. Gateway methods
// collect nothing here; the client requests a payment session separately.
func (s *OrdersService) CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (domain.Order, error) {
	started := time.Now()

	if userID == 0 {
		return domain.Order{}, apperr.Unauthorized("login required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.Order{}, apperr.NotFound("user not found")
	}

	items, err := normalizeLineItems(input.Items)
	if err != nil {
		return domain.Order{}, err
	}

	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return domain.Order{}, err
	}

	if !domain.ValidPaymentMethods[input.PaymentMethod] {
		return domain.Order{}, apperr.InvalidInput("unknown payment method")
	}

	if input.ItemsPrice < 0 || input.ShippingPrice < 0 {
		return domain.Order{}, apperr.InvalidInput("prices cannot be negative")
	}

	if math.Abs(input.TotalPrice-(input.ItemsPrice+input.ShippingPrice)) > 1e-9 {
		return domain.Order{}, apperr.InvalidInput("total price must equal items price plus shipping price")
	}

	order := domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentUnpaid,
		ItemsPrice:      input.ItemsPrice,
		ShippingPrice:   input.ShippingPrice,
		TotalPrice:      input.TotalPrice,
	}

	if err := s.orderRepo.Create(ctx, &order); err != nil {
		logger.Error("Failed to create order", err)
		return domain.Order{}, err
	}

	metrics.OrdersCreated.Inc()
	metrics.OrderCreateLatency.Observe(time.Since(started).Seconds())

	// Best effort: a failed confirmation email never rolls back the order.
	body := fmt.Sprintf(emailBodyOrderConfirmed, user.Name, order.ID, order.TotalPrice)
	if err := s.notifRepo.SendEmail(user.Name, user.Email, SubjectOrderConfirmed, body); err != nil {
		logger.Warn("Failed to send order confirmation email", err)
		metrics.EmailSendFailures.Inc()
	}

	return order, nil
}

// UpdateStatus moves an order along the forward-only fulfillment graph.
// Cancelled is never reachable from here; that is the owner's path.
func (s *OrdersService) UpdateStatus(ctx context.Context, orderID uint, next domain.FulfillmentState) (domain.Order, error) {
	if !next.Valid() {
		return domain.Order{}, apperr.InvalidInput("unknown order status")
	}

	if next == domain.OrderCancelled {
		return domain.Order{}, apperr.InvalidInput("use the cancellation endpoint to cancel an order")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, apperr.NotFound("order not found")
	}

	if !order.Status.CanAdvanceTo(next) {
		return domain.Order{}, apperr.Conflict(fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	applied, err := s.orderRepo.AdvanceStatus(ctx, orderID, order.Status, next)
	if err != nil {
		logger.Error("Failed to advance order status", err)
		return domain.Order{}, err
	}

	if !applied {
		// Another writer changed the order between read and update.
		return domain.Order{}, apperr.Conflict("order status changed concurrently")
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

// CancelOrder is the owner-initiated cancellation. Shipped, Delivered and
// already-Cancelled orders are rejected with Conflict.
func (s *OrdersService) CancelOrder(ctx context.Context, orderID, userID uint, reason string) (domain.Order, error) {
	if reason == "" {
		return domain.Order{}, apperr.InvalidInput("cancellation reason is required")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, apperr.NotFound("order not found")
	}

	if order.UserID != userID {
		return domain.Order{}, apperr.Forbidden("only the order owner can cancel it")
	}

	if order.Status == domain.OrderShipped || order.Status == domain.OrderDelivered {
		return domain.Order{}, apperr.Conflict(fmt.Sprintf("order already %s", order.Status))
	}

	if order.Status == domain.OrderCancelled {
		return domain.Order{}, apperr.Conflict("order already cancelled")
	}

	applied, err := s.orderRepo.Cancel(ctx, orderID, userID, reason)
	if err != nil {
		logger.Error("Failed to cancel order", err)
		return domain.Order{}, err
	}

	if !applied {
		return domain.Order{}, apperr.Conflict("order status changed concurrently")
	}

	metrics.OrdersCancelled.Inc()

	if user, err := s.userRepo.FindByID(ctx, userID); err == nil {
		body := fmt.Sprintf(emailBodyOrderCancelled, user.Name, orderID, reason)
		if err := s.notifRepo.SendEmail(user.Name, user.Email, SubjectOrderCancelled, body); err != nil {
			logger.Warn("Failed to send cancellation email", err)
			metrics.EmailSendFailures.Inc()
		}
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

// GetOrder returns a single order for its owner or any admin.
func (s *OrdersService) GetOrder(ctx context.Context, orderID, callerID uint, callerIsAdmin bool) (domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, apperr.NotFound("order not found")
	}

	if order.UserID != callerID && !callerIsAdmin {
		return domain.Order{}, apperr.Forbidden("not your order")
	}

	return order, nil
}

func (s *OrdersService) ListMyOrders(ctx context.Context, userID uint) ([]domain.Order, error) {
	return s.orderRepo.FindByUser(ctx, userID)
}

func (s *OrdersService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orderRepo.FindAll(ctx)
}
