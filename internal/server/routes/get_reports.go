package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func ListReportsHandler(c echo.Context) error {
	type listReportsQuery struct {
		CaseID string `query:"case_id"`
	}

	query := new(listReportsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	reports, err := q.ListReports(ctx, query.CaseID)
	if err != nil {
		return fail(c, err, "list reports")
	}

	return c.JSON(http.StatusOK, reports)
}

func GetReportHandler(c echo.Context) error {
	type getReportParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getReportParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	rep, err := q.GetReport(ctx, params.ID)
	if err != nil {
		return fail(c, err, "get report")
	}

	return c.JSON(http.StatusOK, rep)
}

// DownloadReportHandler returns a time-limited URL for the compiled PDF.
// 404 until a generation run has completed.
func DownloadReportHandler(c echo.Context) error {
	type downloadReportParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(downloadReportParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	rep, err := q.GetReport(ctx, params.ID)
	if err != nil {
		return fail(c, err, "download report")
	}
	if rep.ArtifactKey == nil || *rep.ArtifactKey == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Report has not been compiled yet"})
	}

	objects := c.(*middleware.AppContext).App.Objects
	url, err := objects.PresignDownload(ctx, *rep.ArtifactKey)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Artifact does not exist"})
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
