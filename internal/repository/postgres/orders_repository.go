package postgres

import (
	"context"
	"errors"
	"laptopVision/domain"
	"time"

	"gorm.io/gorm"
)

// OrdersRepository persists orders and performs every state transition as a
// single conditional UPDATE guarded by the current state, so concurrent admin
// updates, owner cancellations and gateway callbacks on the same order id
// serialize in the database instead of racing in Go.
type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *OrdersRepository) FindByID(ctx context.Context, id uint) (domain.Order, error) {
	var order domain.Order

	err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, errors.New("order not found")
		}
		return domain.Order{}, err
	}

	return order, nil
}

func (r *OrdersRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Order, error) {
	var orders []domain.Order

	err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrdersRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order

	err := r.DB.WithContext(ctx).Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// ExistsByUserAndProduct reports whether the user has any order containing the
// product. Reviews are gated on this.
func (r *OrdersRepository) ExistsByUserAndProduct(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64

	err := r.DB.WithContext(ctx).Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// AdvanceStatus moves an order one step along the fulfillment graph, but only
// if it is still in the expected state. Returns false when another writer got
// there first (or the order never was in that state).
func (r *OrdersRepository) AdvanceStatus(ctx context.Context, orderID uint, from, to domain.FulfillmentState) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == domain.OrderDelivered {
		updates["is_delivered"] = true
		updates["delivered_at"] = time.Now()
	}

	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Cancel marks the order Cancelled for its owner, rejecting orders already
// shipped, delivered or cancelled. Returns false when the guard did not match.
func (r *OrdersRepository) Cancel(ctx context.Context, orderID, userID uint, reason string) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND user_id = ? AND status NOT IN ?", orderID, userID,
			[]domain.FulfillmentState{domain.OrderShipped, domain.OrderDelivered, domain.OrderCancelled}).
		Updates(map[string]interface{}{
			"status":        domain.OrderCancelled,
			"cancel_reason": reason,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// SetTransactionID records the gateway transaction id issued at
// session-initiation time.
func (r *OrdersRepository) SetTransactionID(ctx context.Context, orderID uint, txnID string) error {
	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("transaction_id", txnID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("order not found")
	}

	return nil
}

// MarkPaid applies the success callback. The transition is keyed on the
// transaction id recorded at session initiation, so an order that never opened
// a gateway session (COD included) cannot be marked paid. The guard on
// payment_status makes a redelivered callback a no-op, which the caller uses
// to suppress duplicate notification emails.
func (r *OrdersRepository) MarkPaid(ctx context.Context, orderID uint, paidAt time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND transaction_id <> '' AND payment_status <> ?", orderID, domain.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentPaid,
			"is_paid":        true,
			"paid_at":        paidAt,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// MarkPaymentFailed applies the fail callback, keyed on the session
// transaction id like MarkPaid. Only an Unpaid order can move to Failed; a
// late fail delivery can never undo a recorded payment.
func (r *OrdersRepository) MarkPaymentFailed(ctx context.Context, orderID uint) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND transaction_id <> '' AND payment_status = ?", orderID, domain.PaymentUnpaid).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentFailed,
			"is_paid":        false,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// EnsureUnpaid backs the cancel callback and a fresh session after a failed
// attempt: the order returns to Unpaid unless payment already succeeded.
func (r *OrdersRepository) EnsureUnpaid(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, domain.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentUnpaid,
			"is_paid":        false,
			"updated_at":     time.Now(),
		}).Error
}

// ConfirmCOD pins the payment method to cash on delivery while the order is
// still Pending. Safe to reapply.
func (r *OrdersRepository) ConfirmCOD(ctx context.Context, orderID uint) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, domain.OrderPending).
		Updates(map[string]interface{}{
			"payment_method": domain.MethodCOD,
			"payment_status": domain.PaymentUnpaid,
			"is_paid":        false,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
