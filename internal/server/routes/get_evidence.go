package routes

import (
	"net/http"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func ListEvidenceHandler(c echo.Context) error {
	type listEvidenceQuery struct {
		Kind   string `query:"kind" validate:"omitempty,oneof=image text"`
		CaseID string `query:"case_id"`
	}

	query := new(listEvidenceQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}
	if err := c.Validate(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	items, err := q.ListEvidence(ctx, db.ListEvidenceParams{
		Kind:   query.Kind,
		CaseID: query.CaseID,
	})
	if err != nil {
		return fail(c, err, "list evidence")
	}

	return c.JSON(http.StatusOK, items)
}

func GetEvidenceHandler(c echo.Context) error {
	type getEvidenceParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getEvidenceParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	item, err := q.GetEvidence(ctx, params.ID)
	if err != nil {
		return fail(c, err, "get evidence")
	}

	return c.JSON(http.StatusOK, item)
}

// GetEvidenceFileHandler returns a time-limited download URL for one of the
// evidence's stored files.
func GetEvidenceFileHandler(c echo.Context) error {
	type getEvidenceFileBody struct {
		ID      string `param:"id" validate:"required"`
		FileKey string `json:"file_key" validate:"required"`
	}

	data := new(getEvidenceFileBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	item, err := q.GetEvidence(ctx, data.ID)
	if err != nil {
		return fail(c, err, "get evidence file")
	}

	owned := false
	for _, key := range item.FileKeys {
		if key == data.FileKey {
			owned = true
			break
		}
	}
	if !owned {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File does not belong to this evidence"})
	}

	objects := c.(*middleware.AppContext).App.Objects
	url, err := objects.PresignDownload(ctx, data.FileKey)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File does not exist"})
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
