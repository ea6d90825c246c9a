package payments

import (
	"context"
	"fmt"
	"laptopVision/domain"
	"laptopVision/pkg/apperr"
	"laptopVision/pkg/logger"
	"laptopVision/pkg/metrics"
	"laptopVision/pkg/utils"
	"time"
)

// OrdersRepository contract interface
type OrdersRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Order, error)
	SetTransactionID(ctx context.Context, orderID uint, txnID string) error
	MarkPaid(ctx context.Context, orderID uint, paidAt time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID uint) (bool, error)
	EnsureUnpaid(ctx context.Context, orderID uint) error
	ConfirmCOD(ctx context.Context, orderID uint) (bool, error)
}

// UserRepository contract interface
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// GatewayRepository contract interface
type GatewayRepository interface {
	CreateSession(ctx context.Context, order domain.Order, user domain.User, txnID string) (string, error)
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendEmail(toName, toEmail, subject, htmlBody string) error
}

const (
	SubjectPaymentSuccessful = "Payment Successful"
	SubjectPaymentFailed     = "Payment Failed"

	emailBodyPaymentSuccessful = `<h2>Payment Successful!</h2><p>Hi %v,</p><p>Your payment for order ID <b>%v</b> was successful.</p><p>Thank you for shopping with us!</p>`
	emailBodyPaymentFailed     = `<h2>Payment Failed</h2><p>Hi %v,</p><p>Your payment for order ID <b>%v</b> could not be processed.</p><p>Please try again or contact support if the problem persists.</p>`
)

// PaymentsService owns the order/payment lifecycle: session initiation with
// the gateway and the asynchronous success/fail/cancel callbacks. Callbacks
// are delivered at least once, so every transition is conditional and safe to
// replay.
type PaymentsService struct {
	orderRepo   OrdersRepository
	userRepo    UserRepository
	gatewayRepo GatewayRepository
	notifRepo   NotificationRepository
}

func NewPaymentsService(orderRepo OrdersRepository, userRepo UserRepository, gatewayRepo GatewayRepository, notifRepo NotificationRepository) *PaymentsService {
	return &PaymentsService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		gatewayRepo: gatewayRepo,
		notifRepo:   notifRepo,
	}
}

// InitiateSession asks the processor for a redirect URL. The transaction id
// is persisted on the order before the gateway call so a later callback can
// be correlated even if this process dies in between. On gateway failure the
// order stays Pending/Unpaid and a fresh session can be requested.
func (s *PaymentsService) InitiateSession(ctx context.Context, orderID, callerID uint) (string, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return "", apperr.NotFound("order not found")
	}

	if order.UserID != callerID {
		return "", apperr.Forbidden("not your order")
	}

	if order.PaymentStatus == domain.PaymentPaid {
		return "", apperr.Conflict("order already paid")
	}

	if !domain.IsGatewayMethod(order.PaymentMethod) {
		return "", apperr.InvalidInput("payment method does not use a gateway")
	}

	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		return "", apperr.NotFound("user not found")
	}

	txnID := utils.NewTransactionID()
	if err := s.orderRepo.SetTransactionID(ctx, orderID, txnID); err != nil {
		logger.Error("Failed to persist transaction id", err)
		return "", err
	}

	redirectURL, err := s.gatewayRepo.CreateSession(ctx, order, user, txnID)
	if err != nil {
		logger.Error("Payment gateway rejected session request", err)
		return "", apperr.Upstream("payment gateway unavailable", err)
	}

	metrics.PaymentSessionsInitiated.Inc()
	return redirectURL, nil
}

// ConfirmCOD pins the order to cash on delivery. No money moves; the order
// stays Pending/Unpaid. Reapplying is a no-op.
func (s *PaymentsService) ConfirmCOD(ctx context.Context, orderID uint) (domain.Order, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return domain.Order{}, apperr.NotFound("order not found")
	}

	applied, err := s.orderRepo.ConfirmCOD(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !applied {
		return domain.Order{}, apperr.Conflict("order is no longer pending")
	}

	metrics.PaymentCallbacks.WithLabelValues("cod").Inc()
	return s.orderRepo.FindByID(ctx, orderID)
}

// HandleSuccess applies the processor's success callback: the order becomes
// paid and the owner is notified once. The transition is keyed on the
// transaction id persisted at session initiation, so a callback against an
// order that never opened a session is ignored. A redelivered callback finds
// the conditional update already applied and sends nothing.
func (s *PaymentsService) HandleSuccess(ctx context.Context, orderID uint) error {
	metrics.PaymentCallbacks.WithLabelValues("success").Inc()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return apperr.NotFound("order not found")
	}

	if order.TransactionID == "" {
		logger.Warn("Success callback for order without a payment session ignored", "order_id", orderID)
		return nil
	}

	applied, err := s.orderRepo.MarkPaid(ctx, orderID, time.Now())
	if err != nil {
		logger.Error("Failed to mark order paid", err)
		return err
	}

	if !applied {
		logger.Info("Duplicate success callback ignored", "order_id", orderID)
		return nil
	}

	if user, err := s.userRepo.FindByID(ctx, order.UserID); err == nil {
		body := fmt.Sprintf(emailBodyPaymentSuccessful, user.Name, orderID)
		if err := s.notifRepo.SendEmail(user.Name, user.Email, SubjectPaymentSuccessful, body); err != nil {
			logger.Warn("Failed to send payment success email", err)
			metrics.EmailSendFailures.Inc()
		}
	}

	return nil
}

// HandleFail applies the processor's fail callback, keyed on the session
// transaction id like HandleSuccess. Only an Unpaid order can move to Failed;
// a fail arriving after a recorded success is ignored.
func (s *PaymentsService) HandleFail(ctx context.Context, orderID uint) error {
	metrics.PaymentCallbacks.WithLabelValues("fail").Inc()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return apperr.NotFound("order not found")
	}

	if order.TransactionID == "" {
		logger.Warn("Fail callback for order without a payment session ignored", "order_id", orderID)
		return nil
	}

	applied, err := s.orderRepo.MarkPaymentFailed(ctx, orderID)
	if err != nil {
		logger.Error("Failed to mark payment failed", err)
		return err
	}

	if !applied {
		logger.Info("Duplicate or stale fail callback ignored", "order_id", orderID)
		return nil
	}

	if user, err := s.userRepo.FindByID(ctx, order.UserID); err == nil {
		body := fmt.Sprintf(emailBodyPaymentFailed, user.Name, orderID)
		if err := s.notifRepo.SendEmail(user.Name, user.Email, SubjectPaymentFailed, body); err != nil {
			logger.Warn("Failed to send payment failure email", err)
			metrics.EmailSendFailures.Inc()
		}
	}

	return nil
}

// HandleCancel records that the customer backed out at the gateway. The order
// stays unpaid and retryable. A missing order is not fatal here; the
// processor may deliver a cancel for an order that no longer exists.
func (s *PaymentsService) HandleCancel(ctx context.Context, orderID uint) error {
	metrics.PaymentCallbacks.WithLabelValues("cancel").Inc()

	if err := s.orderRepo.EnsureUnpaid(ctx, orderID); err != nil {
		logger.Warn("Failed to reset order after gateway cancel", "order_id", orderID, "error", err)
	}

	return nil
}
