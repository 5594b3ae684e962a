package middleware

import (
	"forensia/internal/config"
	"forensia/internal/storage"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

// AppUser is the authenticated caller as established by AuthMiddleware.
type AppUser struct {
	UserID int64
	Role   string
}

// App bundles the process-wide dependencies handlers pull from the request
// context.
type App struct {
	DBConn  *pgxpool.Pool
	Queue   *amqp091.Channel
	Key     *keyfunc.Keyfunc
	Objects *storage.ObjectStore
	Cfg     *config.Config
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
