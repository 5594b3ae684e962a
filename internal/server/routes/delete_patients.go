package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/links"
	"forensia/internal/server/middleware"
	"forensia/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// DeletePatientHandler detaches the patient from its case before removing
// the row. Detach first: a dangling forward reference on the case is worse
// than an orphaned patient row.
func DeletePatientHandler(c echo.Context) error {
	type deletePatientParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deletePatientParams)
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

	existing, err := q.GetPatient(ctx, params.ID)
	if err != nil {
		return fail(c, err, "delete patient")
	}
	owner, err := q.GetCase(ctx, existing.CaseID)
	if err != nil {
		return fail(c, err, "delete patient")
	}
	if !middleware.CanManageCase(user, owner.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
	}

	linker := links.New(q)
	if err := linker.Detach(ctx, existing.CaseID, params.ID, db.ChildPatients); err != nil {
		logger.Warn("Detach before patient delete failed", "patient_id", params.ID, "err", err)
	}
	if err := q.DeletePatient(ctx, params.ID); err != nil {
		return fail(c, err, "delete patient")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted"})
}
