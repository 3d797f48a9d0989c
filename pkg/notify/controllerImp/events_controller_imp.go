package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"agriadvisor/entities"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/middleware"
)

const maxPoll = 200

type backlog interface {
	Since(seq uint64, limit int) []entities.Event
	LastSeq() uint64
}

type EventsCtrl struct{ hub backlog }

func NewEventsCtrl(hub backlog) *EventsCtrl { return &EventsCtrl{hub: hub} }

// Poll answers GET /events?since=<seq>&limit=<n>. Clients pass back the
// returned last_seq to receive only newer events.
func (h *EventsCtrl) Poll(c echo.Context) error {
	var since uint64
	if raw := c.QueryParam("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return middleware.ErrorJSON(c, apperr.Validation("since", "%q is not a sequence number", raw))
		}
		since = n
	}
	limit := maxPoll
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return middleware.ErrorJSON(c, apperr.Validation("limit", "must be a positive integer"))
		}
		if n < limit {
			limit = n
		}
	}
	events := h.hub.Since(since, limit)
	if events == nil {
		events = []entities.Event{}
	}
	last := since
	if n := len(events); n > 0 {
		last = events[n-1].Seq
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events, "last_seq": last, "head_seq": h.hub.LastSeq()})
}
