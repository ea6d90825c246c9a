package domain

import "time"

// FulfillmentState tracks shipment progress. Payment outcome lives on its own
// axis (PaymentState) so a callback can never clobber a shipment status.
type FulfillmentState string

const (
	OrderPending    FulfillmentState = "Pending"
	OrderProcessing FulfillmentState = "Processing"
	OrderShipped    FulfillmentState = "Shipped"
	OrderDelivered  FulfillmentState = "Delivered"
	OrderCancelled  FulfillmentState = "Cancelled"
)

type PaymentState string

const (
	PaymentUnpaid PaymentState = "Unpaid"
	PaymentPaid   PaymentState = "Paid"
	PaymentFailed PaymentState = "Failed"
)

const (
	MethodCOD        = "COD"
	MethodBkash      = "Bkash"
	MethodNagad      = "Nagad"
	MethodSSLCommerz = "SSLCommerz"
	MethodStripe     = "Stripe"
	MethodPayPal     = "PayPal"
)

var ValidPaymentMethods = map[string]bool{
	MethodCOD:        true,
	MethodBkash:      true,
	MethodNagad:      true,
	MethodSSLCommerz: true,
	MethodStripe:     true,
	MethodPayPal:     true,
}

// IsGatewayMethod reports whether the method needs a redirect session with an
// external processor. COD collects nothing up front.
func IsGatewayMethod(method string) bool {
	return ValidPaymentMethods[method] && method != MethodCOD
}

// fulfillmentNext is the forward-only admin transition graph. Cancelled is
// reachable only through owner cancellation.
var fulfillmentNext = map[FulfillmentState]FulfillmentState{
	OrderPending:    OrderProcessing,
	OrderProcessing: OrderShipped,
	OrderShipped:    OrderDelivered,
}

func (s FulfillmentState) CanAdvanceTo(next FulfillmentState) bool {
	return fulfillmentNext[s] == next
}

// IsTerminal reports whether no further fulfillment transition is permitted.
func (s FulfillmentState) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

func (s FulfillmentState) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type ShippingAddress struct {
	FullName   string `gorm:"column:shipping_full_name" json:"full_name"`
	Phone      string `gorm:"column:shipping_phone" json:"phone"`
	Address    string `gorm:"column:shipping_address" json:"address"`
	City       string `gorm:"column:shipping_city" json:"city"`
	PostalCode string `gorm:"column:shipping_postal_code" json:"postal_code"`
	Country    string `gorm:"column:shipping_country" json:"country"`
}

// OrderItem is a line item: one product at a unit price, qty times.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"column:order_id;index" json:"order_id"`
	ProductID uint    `gorm:"column:product_id;not null" json:"product_id"`
	Qty       int     `gorm:"column:qty;not null" json:"qty"`
	Price     float64 `gorm:"column:price;not null" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type Order struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	UserID uint        `gorm:"column:user_id;index;not null" json:"user_id"`
	Items  []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	ShippingAddress ShippingAddress `gorm:"embedded" json:"shipping_address"`

	// PaymentMethod is fixed at creation, except for the COD confirm path
	// which forces it to COD.
	PaymentMethod string           `gorm:"column:payment_method;not null" json:"payment_method"`
	Status        FulfillmentState `gorm:"column:status;default:Pending" json:"status"`
	PaymentStatus PaymentState     `gorm:"column:payment_status;default:Unpaid" json:"payment_status"`

	IsPaid      bool       `gorm:"column:is_paid;default:false" json:"is_paid"`
	PaidAt      *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	IsDelivered bool       `gorm:"column:is_delivered;default:false" json:"is_delivered"`
	DeliveredAt *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`

	ItemsPrice    float64 `gorm:"column:items_price;not null" json:"items_price"`
	ShippingPrice float64 `gorm:"column:shipping_price;not null" json:"shipping_price"`
	TotalPrice    float64 `gorm:"column:total_price;not null" json:"total_price"`

	// TransactionID is set at payment-session initiation and correlates
	// gateway callbacks with the session that produced them.
	TransactionID string `gorm:"column:transaction_id;index" json:"transaction_id,omitempty"`
	CancelReason  string `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
