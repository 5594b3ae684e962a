package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forensia/internal/db"
	"forensia/internal/links"
	"forensia/internal/queue"
	"forensia/internal/report"
	"forensia/internal/server/middleware"
	"forensia/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateReportHandler registers a report under a case from
// multipart/form-data. Attachment files are uploaded first and recorded on
// the row; compilation into a PDF happens separately via generate.
func CreateReportHandler(c echo.Context) error {
	type createReportBody struct {
		CaseID  string `param:"id" validate:"required"`
		Title   string `form:"title" validate:"required"`
		Kind    string `form:"kind" validate:"required,oneof=expert_report technical_report dental_opinion"`
		Content string `form:"content"`
	}

	data := new(createReportBody)
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
		return fail(c, err, "create report")
	}
	if !middleware.CanManageCase(user, existing.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
	}

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	var attachments []db.Attachment
	if form, err := c.MultipartForm(); err == nil {
		objects := c.(*middleware.AppContext).App.Objects
		for _, file := range form.File["attachments"] {
			src, err := file.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not open file"})
			}
			defer src.Close()

			fileID, err := gonanoid.New()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
			key, err := objects.PutUpload(
				ctx,
				fmt.Sprintf("cases/%s/attachments", data.CaseID),
				file.Filename,
				fileID,
				src,
			)
			if err != nil {
				logger.Error("Failed to upload report attachment", "err", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
			attachments = append(attachments, db.Attachment{
				Filename:   file.Filename,
				Key:        key,
				UploadedAt: time.Now(),
			})
		}
	}

	var created db.Report
	linker := links.New(q)
	_, err = linker.CreateWithParent(ctx, data.CaseID, db.ChildReports, func(ctx context.Context) (string, error) {
		created, err = q.CreateReport(ctx, db.CreateReportParams{
			ID:          id,
			CaseID:      data.CaseID,
			Title:       data.Title,
			Kind:        db.ReportKind(data.Kind),
			Content:     data.Content,
			Status:      db.ReportDraft,
			Attachments: attachments,
			CreatedBy:   user.UserID,
		})
		if err != nil {
			return "", err
		}
		return created.ID, nil
	})
	if err != nil {
		return fail(c, err, "create report")
	}

	return c.JSON(http.StatusCreated, created)
}

// GenerateReportHandler enqueues an asynchronous compilation of the report
// into a PDF dossier. Authorization is re-checked by the worker with the
// identity carried in the job.
func GenerateReportHandler(c echo.Context) error {
	type generateReportParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(generateReportParams)
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

	rep, err := q.GetReport(ctx, params.ID)
	if err != nil {
		return fail(c, err, "generate report")
	}
	owner, err := q.GetCase(ctx, rep.CaseID)
	if err != nil {
		return fail(c, err, "generate report")
	}
	if !middleware.CanManageCase(user, owner.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not generate reports for this case"})
	}

	ch := c.(*middleware.AppContext).App.Queue
	err = queue.PublishJSON(ch, queue.ReportQueue, report.Request{
		ReportID:    rep.ID,
		CaseID:      rep.CaseID,
		RequestedBy: user.UserID,
		Role:        user.Role,
	})
	if err != nil {
		logger.Error("Failed to enqueue report generation", "report_id", rep.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message":   "Report generation queued",
		"report_id": rep.ID,
	})
}
