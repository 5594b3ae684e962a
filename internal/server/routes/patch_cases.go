package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func UpdateCaseStatusHandler(c echo.Context) error {
	type updateCaseBody struct {
		ID     string `param:"id" validate:"required"`
		Status string `json:"status" validate:"required,oneof=in_progress finalized archived"`
	}

	data := new(updateCaseBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	existing, err := q.GetCase(ctx, data.ID)
	if err != nil {
		return fail(c, err, "update case status")
	}
	if !middleware.CanManageCase(user, existing.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
	}

	updated, err := q.UpdateCaseStatus(ctx, data.ID, db.CaseStatus(data.Status))
	if err != nil {
		return fail(c, err, "update case status")
	}

	return c.JSON(http.StatusOK, updated)
}
