package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func GetPatientHandler(c echo.Context) error {
	type getPatientParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getPatientParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	patient, err := q.GetPatient(ctx, params.ID)
	if err != nil {
		return fail(c, err, "get patient")
	}

	return c.JSON(http.StatusOK, patient)
}

func ListPatientsHandler(c echo.Context) error {
	type listPatientsQuery struct {
		Page  int `query:"page"`
		Limit int `query:"limit"`
	}

	type listPatientsResponse struct {
		Patients   []db.Patient `json:"patients"`
		Page       int32        `json:"page"`
		TotalPages int64        `json:"total_pages"`
		Total      int64        `json:"total"`
	}

	query := new(listPatientsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)
	page := db.NewPage(query.Page, query.Limit)

	patients, err := q.ListPatients(ctx, page)
	if err != nil {
		return fail(c, err, "list patients")
	}
	total, err := q.CountPatients(ctx)
	if err != nil {
		return fail(c, err, "count patients")
	}

	return c.JSON(http.StatusOK, listPatientsResponse{
		Patients:   patients,
		Page:       page.Number,
		TotalPages: page.TotalPages(total),
		Total:      total,
	})
}

// ListCasePatientsHandler returns the patients of one case in registration
// order.
func ListCasePatientsHandler(c echo.Context) error {
	type listCasePatientsParams struct {
		CaseID string `param:"id" validate:"required"`
	}

	params := new(listCasePatientsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	exists, err := q.CaseExists(ctx, params.CaseID)
	if err != nil {
		return fail(c, err, "list case patients")
	}
	if !exists {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Case not found"})
	}

	patients, err := q.ListPatientsByCase(ctx, params.CaseID)
	if err != nil {
		return fail(c, err, "list case patients")
	}

	return c.JSON(http.StatusOK, patients)
}
