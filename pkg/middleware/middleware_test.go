package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriadvisor/pkg/apperr"
)

func serve(t *testing.T, h echo.HandlerFunc, path string) (int, map[string]map[string]string) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(nil)
	e.Use(RequestLogger(nil))
	e.GET("/things/:id", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]map[string]string
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestErrorJSON_DomainKinds(t *testing.T) {
	code, body := serve(t, func(c echo.Context) error {
		return ErrorJSON(c, apperr.Validation("area_ha", "must be greater than 0"))
	}, "/things/1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", body["error"]["kind"])
	assert.Equal(t, "area_ha", body["error"]["field"])

	code, body = serve(t, func(c echo.Context) error {
		return ErrorJSON(c, apperr.AlreadyAcknowledged("a1"))
	}, "/things/1")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_acknowledged", body["error"]["kind"])
}

func TestErrorJSON_HidesInternalErrors(t *testing.T) {
	code, body := serve(t, func(c echo.Context) error {
		return ErrorJSON(c, errors.New("disk on fire at /var/lib/x"))
	}, "/things/1")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["error"]["message"])
}

func TestErrorHandler_EchoErrors(t *testing.T) {
	code, body := serve(t, func(c echo.Context) error { return nil }, "/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"]["kind"])

	code, body = serve(t, func(c echo.Context) error {
		return errors.New("boom")
	}, "/things/1")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal", body["error"]["kind"])
}

func TestParamID(t *testing.T) {
	h := func(c echo.Context) error {
		id, err := ParamID(c, "id")
		if err != nil {
			return ErrorJSON(c, err)
		}
		return c.JSON(http.StatusOK, map[string]map[string]string{"param": {"id": strconv.FormatUint(uint64(id), 10)}})
	}
	code, body := serve(t, h, "/things/7")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "7", body["param"]["id"])
	for _, bad := range []string{"/things/0", "/things/-1", "/things/abc"} {
		code, body := serve(t, h, bad)
		assert.Equal(t, http.StatusBadRequest, code, bad)
		assert.Equal(t, "id", body["error"]["field"])
	}
}
