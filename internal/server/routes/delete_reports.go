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

// DeleteReportHandler detaches the report from its case, removes the row and
// best-effort deletes its compiled artifact.
func DeleteReportHandler(c echo.Context) error {
	type deleteReportParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteReportParams)
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

	existing, err := q.GetReport(ctx, params.ID)
	if err != nil {
		return fail(c, err, "delete report")
	}
	owner, err := q.GetCase(ctx, existing.CaseID)
	if err == nil {
		if !middleware.CanManageCase(user, owner.CreatedBy) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
		}
		linker := links.New(q)
		if err := linker.Detach(ctx, existing.CaseID, params.ID, db.ChildReports); err != nil {
			logger.Warn("Detach before report delete failed", "report_id", params.ID, "err", err)
		}
	} else if !middleware.IsPrivileged(user) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not delete this report"})
	}

	if err := q.DeleteReport(ctx, params.ID); err != nil {
		return fail(c, err, "delete report")
	}

	if existing.ArtifactKey != nil && *existing.ArtifactKey != "" {
		objects := c.(*middleware.AppContext).App.Objects
		if err := objects.Delete(ctx, *existing.ArtifactKey); err != nil {
			logger.Warn("Failed to delete report artifact", "key", *existing.ArtifactKey, "err", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Report deleted"})
}
