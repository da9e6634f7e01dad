package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/service"
	"github.com/Skotchmaster/product_rating/internal/transport"
)

const (
	msgNotFound    = "Not found."
	msgInvalidPage = "Invalid page."
	msgServerError = "A server error occurred."
)

// HTTPErrorHandler renders every error as {"detail": "..."}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := msgServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = fmt.Sprint(he.Message)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, transport.DetailResponse{Detail: msg})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response", "error", werr)
	}
}

// writeServiceError maps a service error to a response: validation errors
// become a field map, missing rows 404, anything else 500.
func writeServiceError(c echo.Context, l *slog.Logger, op string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", "validation failed", "error", err)
		return c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_error", "status", http.StatusNotFound, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	default:
		l.Error(op+"_error", "status", http.StatusInternalServerError, "reason", "internal", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgServerError)
	}
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func readPayload(c echo.Context) (service.Payload, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Could not read request body.")
	}
	p, err := service.DecodePayload(body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "JSON parse error - "+err.Error())
	}
	return p, nil
}
