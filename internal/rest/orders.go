package rest

import (
	"context"
	"encoding/json"
	"laptopVision/business/orders"
	"laptopVision/domain"
	"net/http"
	"strings"
	"time"

	jsonres "laptopVision/pkg/response"

	"github.com/AMFarhan21/fres"

	"github.com/labstack/echo/v4"
)

type OrdersService interface {
	CreateOrder(ctx context.Context, userID uint, input orders.CreateOrderInput) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, next domain.FulfillmentState) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID, userID uint, reason string) (domain.Order, error)
	GetOrder(ctx context.Context, orderID, callerID uint, callerIsAdmin bool) (domain.Order, error)
	ListMyOrders(ctx context.Context, userID uint) ([]domain.Order, error)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
}

type OrdersHandler struct {
	ordersService OrdersService
	timeout       time.Duration
}

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		ordersService: ordersService,
		timeout:       10 * time.Second,
	}
}

type CreateOrderRequest struct {
	Items           json.RawMessage        `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	ItemsPrice      float64                `json:"items_price"`
	ShippingPrice   float64                `json:"shipping_price"`
	TotalPrice      float64                `json:"total_price"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func callerIdentity(c echo.Context) (uint, bool, bool) {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return 0, false, false
	}

	role, _ := c.Get("role").(string)
	return userID, strings.ToLower(role) == domain.RoleAdmin, true
}

func (h *OrdersHandler) CreateOrder(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.ordersService.CreateOrder(ctx, userID, orders.CreateOrderInput{
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      req.ItemsPrice,
		ShippingPrice:   req.ShippingPrice,
		TotalPrice:      req.TotalPrice,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *OrdersHandler) GetOrder(c echo.Context) error {
	userID, isAdmin, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	found, err := h.ordersService.GetOrder(ctx, orderID, userID, isAdmin)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(found))
}

func (h *OrdersHandler) ListMyOrders(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.ordersService.ListMyOrders(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *OrdersHandler) ListAllOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.ordersService.ListAllOrders(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

// UpdateStatus is the admin fulfillment endpoint. Cancellation goes through
// the dedicated cancel route instead.
func (h *OrdersHandler) UpdateStatus(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.ordersService.UpdateStatus(ctx, orderID, domain.FulfillmentState(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *OrdersHandler) CancelOrder(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	var req CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cancelled, err := h.ordersService.CancelOrder(ctx, orderID, userID, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cancelled))
}
