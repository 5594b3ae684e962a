package routes

import (
	"net/http"

	"forensia/internal/apperr"
	"forensia/pkg/logger"

	"github.com/labstack/echo/v4"
)

// fail maps a core error to its HTTP status. Unclassified errors are logged
// and surfaced as a generic 500.
func fail(c echo.Context, err error, op string) error {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "op", op, "err", err)
		return c.JSON(status, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
