package server

import (
	"forensia/internal/server/middleware"
	"forensia/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Case routes
	apiRoutes.GET("/cases", routes.ListCasesHandler)
	apiRoutes.POST("/cases", routes.CreateCaseHandler)
	apiRoutes.GET("/cases/:id", routes.GetCaseHandler)
	apiRoutes.PATCH("/cases/:id/status", routes.UpdateCaseStatusHandler)
	apiRoutes.DELETE("/cases/:id", routes.DeleteCaseHandler)

	// Patient routes. The cross-case listing exposes victim data from every
	// case, so it is restricted to privileged roles.
	apiRoutes.GET("/patients", routes.ListPatientsHandler, middleware.RequirePrivileged)
	apiRoutes.GET("/patients/:id", routes.GetPatientHandler)
	apiRoutes.PATCH("/patients/:id", routes.UpdatePatientHandler)
	apiRoutes.DELETE("/patients/:id", routes.DeletePatientHandler)
	apiRoutes.GET("/cases/:id/patients", routes.ListCasePatientsHandler)
	apiRoutes.POST("/cases/:id/patients", routes.CreatePatientHandler)

	// Evidence routes
	apiRoutes.GET("/evidence", routes.ListEvidenceHandler)
	apiRoutes.GET("/evidence/:id", routes.GetEvidenceHandler)
	apiRoutes.POST("/evidence/:id/file", routes.GetEvidenceFileHandler)
	apiRoutes.DELETE("/evidence/:id", routes.DeleteEvidenceHandler)
	apiRoutes.POST("/cases/:id/evidence", routes.CreateEvidenceHandler)

	// Report routes
	apiRoutes.GET("/reports", routes.ListReportsHandler)
	apiRoutes.GET("/reports/:id", routes.GetReportHandler)
	apiRoutes.GET("/reports/:id/download", routes.DownloadReportHandler)
	apiRoutes.POST("/reports/:id/generate", routes.GenerateReportHandler)
	apiRoutes.DELETE("/reports/:id", routes.DeleteReportHandler)
	apiRoutes.POST("/cases/:id/reports", routes.CreateReportHandler)
}
