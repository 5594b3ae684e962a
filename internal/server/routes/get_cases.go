package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func ListCasesHandler(c echo.Context) error {
	type listCasesQuery struct {
		Category string `query:"category" validate:"omitempty,oneof=accident identification criminal"`
		Status   string `query:"status" validate:"omitempty,oneof=in_progress finalized archived"`
		Page     int    `query:"page"`
		Limit    int    `query:"limit"`
	}

	type listCasesResponse struct {
		Cases      []db.Case `json:"cases"`
		Page       int32     `json:"page"`
		TotalPages int64     `json:"total_pages"`
		Total      int64     `json:"total"`
	}

	query := new(listCasesQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}
	if err := c.Validate(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)
	page := db.NewPage(query.Page, query.Limit)

	cases, err := q.ListCases(ctx, db.ListCasesParams{
		Category: query.Category,
		Status:   query.Status,
		Page:     page,
	})
	if err != nil {
		return fail(c, err, "list cases")
	}
	total, err := q.CountCases(ctx, query.Category, query.Status)
	if err != nil {
		return fail(c, err, "count cases")
	}

	return c.JSON(http.StatusOK, listCasesResponse{
		Cases:      cases,
		Page:       page.Number,
		TotalPages: page.TotalPages(total),
		Total:      total,
	})
}

// GetCaseHandler returns one case populated with its patients, evidence and
// reports.
func GetCaseHandler(c echo.Context) error {
	type getCaseParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getCaseParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	detail, err := q.GetCaseDetail(ctx, params.ID)
	if err != nil {
		return fail(c, err, "get case")
	}

	return c.JSON(http.StatusOK, detail)
}
