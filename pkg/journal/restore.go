// Package journal rebuilds the in-memory stores from the durable journal at
// boot. While the process runs the stores are authoritative and the journal
// only follows them.
package journal

import (
	"context"

	"agriadvisor/entities"
	alertrepo "agriadvisor/pkg/alert/repository"
	fieldrepo "agriadvisor/pkg/field/repository"
	"agriadvisor/pkg/journal/repository"
	"agriadvisor/pkg/logger"
	recrepo "agriadvisor/pkg/recommend/repository"
)

type RestoreStats struct {
	Fields          int
	Snapshots       int
	Alerts          int
	Recommendations int
	Skipped         int
}

// Restore loads the journal into empty stores. Rows that no longer fit (an
// alert for an unknown field, a second active alert of one type) are logged
// and skipped.
func Restore(
	ctx context.Context,
	rec repository.Recorder,
	fields fieldrepo.FieldRepository,
	alerts alertrepo.AlertRepository,
	cache recrepo.RecommendationRepository,
	log *logger.Logger,
) (RestoreStats, error) {
	log = logger.OrNop(log).With("component", "journal")
	var stats RestoreStats
	st, err := rec.Load(ctx)
	if err != nil {
		return stats, err
	}

	known := map[uint]bool{}
	for _, f := range st.Fields {
		hist := st.Snapshots[f.FieldID]
		if err := fields.Restore(f, hist); err != nil {
			log.Warn("skip field", "field_id", f.FieldID, "error", err)
			stats.Skipped++
			continue
		}
		known[f.FieldID] = true
		stats.Fields++
		stats.Snapshots += len(hist)
	}
	for _, a := range st.Alerts {
		if !known[a.FieldID] {
			log.Warn("skip alert for unknown field", "alert_id", a.ID, "field_id", a.FieldID)
			stats.Skipped++
			continue
		}
		if err := alerts.Restore(a); err != nil {
			log.Warn("skip alert", "alert_id", a.ID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Alerts++
	}
	for _, r := range st.Recommendations {
		if !known[r.FieldID] || !cache.Put(r) {
			stats.Skipped++
			continue
		}
		// The field row may lag behind the recommendation row.
		ref := entities.RecommendationRef{RecommendationID: r.ID, SnapshotVersion: r.SnapshotVersion}
		if err := fields.SetLastRecommendation(r.FieldID, ref); err != nil {
			log.Warn("set last recommendation", "field_id", r.FieldID, "error", err)
		}
		stats.Recommendations++
	}
	log.Info("journal restored", "fields", stats.Fields, "snapshots", stats.Snapshots,
		"alerts", stats.Alerts, "recommendations", stats.Recommendations, "skipped", stats.Skipped)
	return stats, nil
}
