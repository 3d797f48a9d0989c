package controllerImp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriadvisor/entities"
	"agriadvisor/pkg/notify"
)

func poll(t *testing.T, h *EventsCtrl, query string) (int, map[string]json.RawMessage) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/events"+query, nil), rec)
	require.NoError(t, h.Poll(c))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestPoll(t *testing.T) {
	hub := notify.NewHub(10, nil)
	for i := 0; i < 3; i++ {
		hub.Emit(context.Background(), entities.Event{Kind: entities.EventFieldAdded, FieldID: uint(i + 1)})
	}
	h := NewEventsCtrl(hub)

	code, body := poll(t, h, "?since=1&limit=1")
	require.Equal(t, http.StatusOK, code)
	var events []entities.Event
	require.NoError(t, json.Unmarshal(body["events"], &events))
	require.Len(t, events, 1)
	assert.Equal(t, uint64(2), events[0].Seq)
	assert.JSONEq(t, "2", string(body["last_seq"]))
	assert.JSONEq(t, "3", string(body["head_seq"]))

	_, body = poll(t, h, "?since=3")
	assert.JSONEq(t, "[]", string(body["events"]))
	assert.JSONEq(t, "3", string(body["last_seq"]))
}

func TestPoll_BadParams(t *testing.T) {
	h := NewEventsCtrl(notify.NewHub(10, nil))
	code, _ := poll(t, h, "?since=abc")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = poll(t, h, "?limit=0")
	assert.Equal(t, http.StatusBadRequest, code)
}
