package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"agriadvisor/entities"
	alertsvc "agriadvisor/pkg/alert/service"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/field/service"
	"agriadvisor/pkg/intake"
	"agriadvisor/pkg/middleware"
	"agriadvisor/pkg/weather"
)

type FieldCtrl struct {
	svc       service.FieldService
	lifecycle alertsvc.AlertService
	bulletin  weather.Source
}

// NewFieldCtrl wires the field endpoints. bulletin may be nil, in which case
// weather refresh answers 503.
func NewFieldCtrl(svc service.FieldService, lifecycle alertsvc.AlertService, bulletin weather.Source) *FieldCtrl {
	return &FieldCtrl{svc: svc, lifecycle: lifecycle, bulletin: bulletin}
}

// createReq mirrors the add-field form. Soil readings are optional and,
// when present, become the field's first snapshot.
type createReq struct {
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	CropType   string  `json:"crop_type"`
	AreaHa     float64 `json:"area_ha"`
	SowingDate string  `json:"sowing_date"`
	intake.Raw
}

func (h *FieldCtrl) Create(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil {
		return middleware.ErrorJSON(c, apperr.Validation("body", "invalid json"))
	}
	var snap *entities.SoilSnapshot
	if !req.Raw.Empty() {
		s, err := intake.Normalize(req.Raw)
		if err != nil {
			return middleware.ErrorJSON(c, err)
		}
		snap = &s
	}

	ctx := c.Request().Context()
	f, ev, err := h.svc.AddField(ctx, entities.FieldSpec{
		Name:       req.Name,
		Location:   req.Location,
		CropType:   req.CropType,
		AreaHa:     req.AreaHa,
		SowingDate: req.SowingDate,
	})
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	resp := echo.Map{"field": f, "events": []entities.Event{ev}, "alerts": []alertsvc.AlertView{}}
	if snap != nil {
		res, err := h.lifecycle.IngestSnapshot(ctx, f.FieldID, *snap)
		if err != nil {
			return middleware.ErrorJSON(c, err)
		}
		resp["field"] = res.Field
		resp["alerts"] = res.Alerts
		resp["events"] = append([]entities.Event{ev}, res.Events...)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *FieldCtrl) List(c echo.Context) error {
	list := h.svc.ListActive()
	return c.JSON(http.StatusOK, echo.Map{"fields": list, "count": len(list)})
}

func (h *FieldCtrl) Get(c echo.Context) error {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	f, err := h.svc.GetField(id)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FieldCtrl) SetStatus(c echo.Context) error {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return middleware.ErrorJSON(c, apperr.Validation("body", "invalid json"))
	}
	f, err := h.svc.SetStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// Snapshots lists the history oldest first, or one version with ?version=.
func (h *FieldCtrl) Snapshots(c echo.Context) error {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	hist, err := h.svc.Snapshots(id)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	if raw := c.QueryParam("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return middleware.ErrorJSON(c, apperr.Validation("version", "%q is not a valid version", raw))
		}
		if v > len(hist) {
			return middleware.ErrorJSON(c, apperr.NotFound("field %d has no snapshot version %d", id, v))
		}
		return c.JSON(http.StatusOK, hist[v-1])
	}
	return c.JSON(http.StatusOK, echo.Map{"snapshots": hist, "count": len(hist)})
}

// SubmitSnapshot is the soil form submission: intake, then ingest.
func (h *FieldCtrl) SubmitSnapshot(c echo.Context) error {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	var raw intake.Raw
	if err := c.Bind(&raw); err != nil {
		return middleware.ErrorJSON(c, apperr.Validation("body", "invalid json"))
	}
	res, err := h.lifecycle.Ingest(c.Request().Context(), id, raw)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// RefreshWeather pulls the configured bulletin and raises a weather alert
// for the field when any warning covers its location.
func (h *FieldCtrl) RefreshWeather(c echo.Context) error {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	if h.bulletin == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": echo.Map{"kind": "unavailable", "message": "no weather bulletin configured"}})
	}
	f, err := h.svc.GetField(id)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	ctx := c.Request().Context()
	ws, err := h.bulletin.Warnings(ctx, f.Location)
	if err != nil {
		middleware.Logger(c).Warn("weather bulletin failed", "field_id", id, "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": echo.Map{"kind": "upstream", "message": "weather bulletin unavailable"}})
	}
	res, err := h.lifecycle.IngestWeather(ctx, id, ws)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"warnings": ws, "alerts": res.Alerts, "events": res.Events})
}
