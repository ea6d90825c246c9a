package middleware

import (
	"laptopVision/pkg/apperr"
	"laptopVision/pkg/logger"
	"net/http"

	jsonres "laptopVision/pkg/response"

	"github.com/labstack/echo/v4"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindInvalidInput:    http.StatusBadRequest,
	apperr.KindUnauthorized:    http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindUpstreamFailure: http.StatusBadGateway,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// ErrorHandler is the central echo error handler. Handlers return service
// errors as-is; the error's kind decides the HTTP status and the client never
// sees internal error details.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if httpErr, ok := err.(*echo.HTTPError); ok {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		_ = c.JSON(httpErr.Code, jsonres.Error(http.StatusText(httpErr.Code), msg, nil))
		return
	}

	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Unhandled error", err, "path", c.Path())
		message = "internal server error"
	}

	_ = c.JSON(status, jsonres.Error(string(kind), message, nil))
}
