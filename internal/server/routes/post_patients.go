package routes

import (
	"context"
	"net/http"

	"forensia/internal/db"
	"forensia/internal/links"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreatePatientHandler registers a patient under a case. The patient row and
// the case's patient list are linked through internal/links, so a failed
// second write is recoverable.
func CreatePatientHandler(c echo.Context) error {
	type createPatientBody struct {
		CaseID          string   `param:"id" validate:"required"`
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

	data := new(createPatientBody)
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

	existing, err := q.GetCase(ctx, data.CaseID)
	if err != nil {
		return fail(c, err, "create patient")
	}
	if !middleware.CanManageCase(user, existing.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
	}

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	var created db.Patient
	linker := links.New(q)
	_, err = linker.CreateWithParent(ctx, data.CaseID, db.ChildPatients, func(ctx context.Context) (string, error) {
		created, err = q.CreatePatient(ctx, db.CreatePatientParams{
			ID:              id,
			CaseID:          data.CaseID,
			NIC:             data.NIC,
			Name:            data.Name,
			Gender:          data.Gender,
			Age:             data.Age,
			Document:        data.Document,
			Address:         data.Address,
			Ethnicity:       data.Ethnicity,
			Chart:           data.Chart,
			AnatomicalNotes: data.AnatomicalNotes,
			CreatedBy:       user.UserID,
		})
		if err != nil {
			return "", err
		}
		return created.ID, nil
	})
	if err != nil {
		return fail(c, err, "create patient")
	}

	return c.JSON(http.StatusCreated, created)
}
