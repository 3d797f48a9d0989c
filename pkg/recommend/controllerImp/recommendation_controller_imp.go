package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agriadvisor/pkg/middleware"
	"agriadvisor/pkg/recommend/service"
)

type RecommendationCtrl struct{ svc service.RecommendationService }

func NewRecommendationCtrl(svc service.RecommendationService) *RecommendationCtrl {
	return &RecommendationCtrl{svc: svc}
}

// Get answers GET /fields/:id/recommendation.
func (h *RecommendationCtrl) Get(c echo.Context) error {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	rec, err := h.svc.GetOrCompute(c.Request().Context(), id)
	if err != nil {
		return middleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}
