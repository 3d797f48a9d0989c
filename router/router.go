package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"agriadvisor/pkg/logger"
	"agriadvisor/pkg/middleware"
)

type fieldHandlers interface {
	Create(echo.Context) error
	List(echo.Context) error
	Get(echo.Context) error
	SetStatus(echo.Context) error
	Snapshots(echo.Context) error
	SubmitSnapshot(echo.Context) error
	RefreshWeather(echo.Context) error
}

type alertHandlers interface {
	List(echo.Context) error
	Get(echo.Context) error
	Recommendation(echo.Context) error
	Ack(echo.Context) error
}

func New(
	e *echo.Echo,
	log *logger.Logger,
	fieldCtrl fieldHandlers,
	alertCtrl alertHandlers,
	recCtrl interface{ Get(echo.Context) error },
	eventsCtrl interface{ Poll(echo.Context) error },
	healthCtrl interface{ Health(echo.Context) error },
) *echo.Echo {
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger(log))

	e.GET("/health", healthCtrl.Health)
	e.GET("/events", eventsCtrl.Poll)

	f := e.Group("/fields")
	f.POST("", fieldCtrl.Create)
	f.GET("", fieldCtrl.List)
	f.GET("/:id", fieldCtrl.Get)
	f.PATCH("/:id/status", fieldCtrl.SetStatus)
	f.GET("/:id/snapshots", fieldCtrl.Snapshots)
	f.POST("/:id/snapshots", fieldCtrl.SubmitSnapshot)
	f.POST("/:id/weather/refresh", fieldCtrl.RefreshWeather)
	f.GET("/:id/recommendation", recCtrl.Get)

	a := e.Group("/alerts")
	a.GET("", alertCtrl.List)
	a.GET("/:id", alertCtrl.Get)
	a.GET("/:id/recommendation", alertCtrl.Recommendation)
	a.POST("/:id/ack", alertCtrl.Ack)
	return e
}
