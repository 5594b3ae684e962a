package routes

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"forensia/internal/db"
	"forensia/internal/links"
	"forensia/internal/server/middleware"
	"forensia/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateEvidenceHandler registers evidence under a case from
// multipart/form-data. Image files are uploaded to object storage first;
// the row then references their keys.
func CreateEvidenceHandler(c echo.Context) error {
	type createEvidenceBody struct {
		CaseID      string   `param:"id" validate:"required"`
		Kind        string   `form:"kind" validate:"required,oneof=image text"`
		Content     string   `form:"content"`
		Annotations []string `form:"annotations"`
		Longitude   *float64 `form:"longitude" validate:"omitempty,min=-180,max=180"`
		Latitude    *float64 `form:"latitude" validate:"omitempty,min=-90,max=90"`
		Address     *string  `form:"address"`
	}

	data := new(createEvidenceBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if (data.Longitude == nil) != (data.Latitude == nil) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Location requires both longitude and latitude"})
	}
	if data.Kind == string(db.EvidenceText) && strings.TrimSpace(data.Content) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Text evidence requires content"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	q := db.New(c.(*middleware.AppContext).App.DBConn)

	existing, err := q.GetCase(ctx, data.CaseID)
	if err != nil {
		return fail(c, err, "create evidence")
	}
	if !middleware.CanManageCase(user, existing.CreatedBy) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You may not modify this case"})
	}

	var uploads []string
	if form, err := c.MultipartForm(); err == nil {
		objects := c.(*middleware.AppContext).App.Objects
		for _, file := range form.File["files"] {
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
				fmt.Sprintf("cases/%s/evidence", data.CaseID),
				file.Filename,
				fileID,
				src,
			)
			if err != nil {
				logger.Error("Failed to upload evidence file", "err", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
			uploads = append(uploads, key)
		}
	}

	var location *db.Geo
	if data.Longitude != nil {
		location = &db.Geo{Longitude: *data.Longitude, Latitude: *data.Latitude}
	}

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	var created db.Evidence
	linker := links.New(q)
	_, err = linker.CreateWithParent(ctx, data.CaseID, db.ChildEvidence, func(ctx context.Context) (string, error) {
		created, err = q.CreateEvidence(ctx, db.CreateEvidenceParams{
			ID:          id,
			CaseID:      data.CaseID,
			Kind:        db.EvidenceKind(data.Kind),
			Content:     data.Content,
			FileKeys:    uploads,
			Annotations: data.Annotations,
			Location:    location,
			Address:     data.Address,
			UploadedBy:  user.UserID,
		})
		if err != nil {
			return "", err
		}
		return created.ID, nil
	})
	if err != nil {
		return fail(c, err, "create evidence")
	}

	return c.JSON(http.StatusCreated, created)
}
