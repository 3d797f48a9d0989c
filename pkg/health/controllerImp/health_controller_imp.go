package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var appStart = time.Now()

// EngineStats is the in-memory state summary reported by /health.
type EngineStats struct {
	ActiveFields          int    `json:"active_fields"`
	ActiveAlerts          int    `json:"active_alerts"`
	AcknowledgedAlerts    int    `json:"acknowledged_alerts"`
	CachedRecommendations int    `json:"cached_recommendations"`
	Computations          int64  `json:"recommendation_computations"`
	LastEventSeq          uint64 `json:"last_event_seq"`
}

type HealthCtrl struct {
	db    *gorm.DB
	stats func() EngineStats
}

// NewHealthCtrl takes the journal database, nil when the journal is off.
func NewHealthCtrl(db *gorm.DB, stats func() EngineStats) *HealthCtrl {
	return &HealthCtrl{db: db, stats: stats}
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	type sub struct {
		OK       bool   `json:"ok"`
		Disabled bool   `json:"disabled,omitempty"`
		Err      string `json:"err,omitempty"`
	}
	journal := sub{OK: true}
	if h.db == nil {
		journal.Disabled = true
	} else if sqlDB, err := h.db.DB(); err != nil {
		journal = sub{Err: "db.DB(): " + err.Error()}
	} else if err := sqlDB.PingContext(ctx); err != nil {
		journal = sub{Err: "ping: " + err.Error()}
	}

	status := http.StatusOK
	if !journal.OK {
		status = http.StatusServiceUnavailable
	}
	resp := map[string]any{
		"status":     map[string]any{"ok": journal.OK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks":     map[string]any{"journal": journal},
		"time":       time.Now().Format(time.RFC3339),
	}
	if h.stats != nil {
		resp["engine"] = h.stats()
	}
	return c.JSON(status, resp)
}
