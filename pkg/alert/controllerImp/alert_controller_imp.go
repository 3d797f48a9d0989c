package controllerImp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"agriadvisor/pkg/alert/service"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/middleware"
)

type AlertCtrl struct{ svc service.AlertService }

func NewAlertCtrl(svc service.AlertService) *AlertCtrl { return &AlertCtrl{svc: svc} }

// List answers GET /alerts, optionally filtered with ?field_id=.
func (h *AlertCtrl) List(c echo.Context) error {
	var fieldID *uint
	if raw := strings.TrimSpace(c.QueryParam("field_id")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			return middleware.ErrorJSON(c, apperr.Validation("field_id", "%q is not a valid id", raw))
		}
		id := uint(n)
		fieldID = &id
	}
	list, err := h.svc.ListActive(fieldID)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"alerts": list, "count": len(list)})
}

func (h *AlertCtrl) Get(c echo.Context) error {
	a, err := h.svc.GetAlert(c.Param("id"))
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Recommendation answers GET /alerts/:id/recommendation, the "open alert"
// action of the UI.
func (h *AlertCtrl) Recommendation(c echo.Context) error {
	rec, err := h.svc.ViewRecommendation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *AlertCtrl) Ack(c echo.Context) error {
	a, ev, err := h.svc.Acknowledge(c.Request().Context(), c.Param("id"))
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"alert": a, "event": ev})
}
