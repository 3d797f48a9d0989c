package repositoryImp

import (
	"context"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agriadvisor/entities"
	"agriadvisor/pkg/journal"
	"agriadvisor/pkg/journal/repository"
)

type sqliteJournal struct{ db *gorm.DB }

// New expects db to be migrated with journal.Models.
func New(db *gorm.DB) repository.Recorder { return &sqliteJournal{db: db} }

func (j *sqliteJournal) SaveField(ctx context.Context, f entities.Field) error {
	row := journal.FieldToRow(f)
	err := j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "field_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	return eris.Wrapf(err, "journal: save field %d", f.FieldID)
}

// SaveSnapshot is insert-only. Snapshots never change once versioned.
func (j *sqliteJournal) SaveSnapshot(ctx context.Context, fieldID uint, s entities.SoilSnapshot) error {
	row := journal.SnapshotToRow(fieldID, s)
	err := j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "field_id"}, {Name: "version"}},
		DoNothing: true,
	}).Create(&row).Error
	return eris.Wrapf(err, "journal: save snapshot %d@%d", fieldID, s.Version)
}

func (j *sqliteJournal) SaveAlert(ctx context.Context, a entities.Alert) error {
	row := journal.AlertToRow(a)
	err := j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	return eris.Wrapf(err, "journal: save alert %s", a.ID)
}

func (j *sqliteJournal) SaveRecommendation(ctx context.Context, r entities.Recommendation) error {
	row := journal.RecommendationToRow(r)
	err := j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "field_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	return eris.Wrapf(err, "journal: save recommendation for field %d", r.FieldID)
}

func (j *sqliteJournal) Load(ctx context.Context) (repository.State, error) {
	db := j.db.WithContext(ctx)
	st := repository.State{Snapshots: map[uint][]entities.SoilSnapshot{}}

	var fields []journal.FieldRow
	if err := db.Order("field_id asc").Find(&fields).Error; err != nil {
		return st, eris.Wrap(err, "journal: load fields")
	}
	for _, r := range fields {
		st.Fields = append(st.Fields, r.Entity())
	}

	var snaps []journal.SnapshotRow
	if err := db.Order("field_id asc, version asc").Find(&snaps).Error; err != nil {
		return st, eris.Wrap(err, "journal: load snapshots")
	}
	for _, r := range snaps {
		st.Snapshots[r.FieldID] = append(st.Snapshots[r.FieldID], r.Entity())
	}

	var alerts []journal.AlertRow
	if err := db.Order("created_at asc, id asc").Find(&alerts).Error; err != nil {
		return st, eris.Wrap(err, "journal: load alerts")
	}
	for _, r := range alerts {
		st.Alerts = append(st.Alerts, r.Entity())
	}

	var recs []journal.RecommendationRow
	if err := db.Order("field_id asc").Find(&recs).Error; err != nil {
		return st, eris.Wrap(err, "journal: load recommendations")
	}
	for _, r := range recs {
		st.Recommendations = append(st.Recommendations, r.Entity())
	}
	return st, nil
}
