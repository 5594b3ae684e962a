package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func UpdatePatientHandler(c echo.Context) error {
	type updatePatientBody struct {
		ID              string   `param:"id" validate:"required"`
		NIC             string   `json:"nic" validate:"required"`
		Name            *string  `json:"name"`
		Gender          string   `json:"gender" validate:"required"`
		Age             int32    `json:"age" validate:"gte=0"`
		Document        *string  `json:"document"`
		Address         *string  `json:"address"`
		Ethnicity       *string  `json:"ethnicity"`
		Chart           db.Chart `json:"chart"`
		AnatomicalNotes string   `json:"anatomical_notes"`
	}

	data := new(updatePatientBody)
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

	existing, err := q.GetPatient(ctx, data.ID)
	if err != nil {
		return fail(c, err, "update patient")
	}
	owner, err := q.GetCase(ctx, existing.CaseID)
	if err != nil {
		return fail(c, err, "update patient")
	}
	if !middleware.CanManageCase(user, owner.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
	}

	updated, err := q.UpdatePatient(ctx, db.UpdatePatientParams{
		ID:              data.ID,
		NIC:             data.NIC,
		Name:            data.Name,
		Gender:          data.Gender,
		Age:             data.Age,
		Document:        data.Document,
		Address:         data.Address,
		Ethnicity:       data.Ethnicity,
		Chart:           data.Chart,
		AnatomicalNotes: data.AnatomicalNotes,
		UpdatedBy:       user.UserID,
	})
	if err != nil {
		return fail(c, err, "update patient")
	}

	return c.JSON(http.StatusOK, updated)
}
