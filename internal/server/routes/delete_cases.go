package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/links"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// DeleteCaseHandler removes a case and cascades its patients. Evidence and
// report rows survive as unowned records.
func DeleteCaseHandler(c echo.Context) error {
	type deleteCaseParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteCaseParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	existing, err := q.GetCase(ctx, params.ID)
	if err != nil {
		return fail(c, err, "delete case")
	}
	if !middleware.CanManageCase(user, existing.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not delete this case"})
	}

	linker := links.New(q)
	if err := linker.CascadeDeleteCase(ctx, params.ID); err != nil {
		return fail(c, err, "delete case")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Case deleted"})
}
