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

// DeleteEvidenceHandler detaches the evidence from its case, removes the row
// and best-effort deletes its stored files.
func DeleteEvidenceHandler(c echo.Context) error {
	type deleteEvidenceParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteEvidenceParams)
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

	existing, err := q.GetEvidence(ctx, params.ID)
	if err != nil {
		return fail(c, err, "delete evidence")
	}
	owner, err := q.GetCase(ctx, existing.CaseID)
	if err == nil {
		if !middleware.CanManageCase(user, owner.CreatedBy) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
		}
		linker := links.New(q)
		if err := linker.Detach(ctx, existing.CaseID, params.ID, db.ChildEvidence); err != nil {
			logger.Warn("Detach before evidence delete failed", "evidence_id", params.ID, "err", err)
		}
	} else if !middleware.IsPrivileged(user) {
		// Owning case is gone; only privileged users may purge leftovers.
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not delete this evidence"})
	}

	if err := q.DeleteEvidence(ctx, params.ID); err != nil {
		return fail(c, err, "delete evidence")
	}

	objects := c.(*middleware.AppContext).App.Objects
	for _, key := range existing.FileKeys {
		if err := objects.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete evidence file", "key", key, "err", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Evidence deleted"})
}
