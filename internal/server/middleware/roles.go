package middleware

import (
	"net/http"

	"forensia/internal/report"

	"github.com/labstack/echo/v4"
)

func IsAdmin(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == report.RoleAdmin
}

// IsPrivileged reports whether the user holds a role allowed to act on any
// case regardless of ownership.
func IsPrivileged(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == report.RoleAdmin || user.Role == report.RoleExaminer
}

// CanManageCase allows privileged roles and the case creator.
func CanManageCase(user *AppUser, caseCreatedBy int64) bool {
	if user == nil {
		return false
	}
	return IsPrivileged(user) || user.UserID == caseCreatedBy
}

func RequirePrivileged(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.(*AppContext).User
		if user == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		if !IsPrivileged(user) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: requires examiner or admin role"})
		}

		return next(c)
	}
}
