package rest

import (
	"context"
	"laptopVision/domain"
	"net/http"
	"time"

	jsonres "laptopVision/pkg/response"

	"github.com/AMFarhan21/fres"

	"github.com/labstack/echo/v4"
)

type PaymentsService interface {
	InitiateSession(ctx context.Context, orderID, callerID uint) (string, error)
	ConfirmCOD(ctx context.Context, orderID uint) (domain.Order, error)
	HandleSuccess(ctx context.Context, orderID uint) error
	HandleFail(ctx context.Context, orderID uint) error
	HandleCancel(ctx context.Context, orderID uint) error
}

type PaymentsHandler struct {
	paymentsService PaymentsService
	timeout         time.Duration
}

func NewPaymentsHandler(paymentsService PaymentsService) *PaymentsHandler {
	return &PaymentsHandler{
		paymentsService: paymentsService,
		timeout:         15 * time.Second,
	}
}

// InitiateSession asks the gateway for a checkout URL and hands it to the
// client to redirect to.
func (h *PaymentsHandler) InitiateSession(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	redirectURL, err := h.paymentsService.InitiateSession(ctx, orderID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]string{
		"url": redirectURL,
	}))
}

func (h *PaymentsHandler) ConfirmCOD(c echo.Context) error {
	if _, ok := c.Get("user_id").(uint); !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	confirmed, err := h.paymentsService.ConfirmCOD(ctx, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(confirmed))
}

// The gateway redirects the customer's browser here after checkout. These
// routes are unauthenticated and registered for both GET and POST because the
// processor uses either depending on configuration.

func (h *PaymentsHandler) PaymentSuccess(c echo.Context) error {
	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.paymentsService.HandleSuccess(ctx, orderID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Your payment was successful!"))
}

func (h *PaymentsHandler) PaymentFail(c echo.Context) error {
	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.paymentsService.HandleFail(ctx, orderID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Payment failed"))
}

func (h *PaymentsHandler) PaymentCancel(c echo.Context) error {
	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid order id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.paymentsService.HandleCancel(ctx, orderID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Payment cancelled"))
}
