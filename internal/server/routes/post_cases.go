package routes

import (
	"net/http"
	"time"

	"forensia/internal/db"
	"forensia/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

func CreateCaseHandler(c echo.Context) error {
	type createCaseBody struct {
		Title         string     `json:"title" validate:"required"`
		Description   string     `json:"description"`
		Category      string     `json:"category" validate:"required,oneof=accident identification criminal"`
		ResponsibleID int64      `json:"responsible_id"`
		OpenedAt      *time.Time `json:"opened_at"`
		History       string     `json:"history"`
		AnalysisNotes string     `json:"analysis_notes"`
	}

	data := new(createCaseBody)
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

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	openedAt := time.Now()
	if data.OpenedAt != nil {
		openedAt = *data.OpenedAt
	}
	responsible := data.ResponsibleID
	if responsible == 0 {
		responsible = user.UserID
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	created, err := q.CreateCase(ctx, db.CreateCaseParams{
		ID:            id,
		Title:         data.Title,
		Description:   data.Description,
		Category:      db.CaseCategory(data.Category),
		Status:        db.CaseInProgress,
		ResponsibleID: responsible,
		CreatedBy:     user.UserID,
		OpenedAt:      openedAt,
		History:       data.History,
		AnalysisNotes: data.AnalysisNotes,
	})
	if err != nil {
		return fail(c, err, "create case")
	}

	return c.JSON(http.StatusCreated, created)
}
