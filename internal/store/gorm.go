package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// StateJSON stores a composition state in a JSONB column
type StateJSON models.CompositionState

// Value implements driver.Valuer
func (s StateJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(models.CompositionState(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *StateJSON) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StateJSON", value)
	}
	var state models.CompositionState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	*s = StateJSON(state)
	return nil
}

// CompositionRecord is the table row of a stored composition. The summary
// columns exist for querying; State holds everything needed to extend it.
type CompositionRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Genre     string    `gorm:"index" json:"genre"`
	Seed      int64     `json:"seed"`
	Score     float64   `json:"score"`
	Turns     int       `json:"turns"`
	State     StateJSON `gorm:"type:jsonb;not null" json:"state"`
}

// TableName sets the table name
func (CompositionRecord) TableName() string {
	return "compositions"
}

func newRecord(state *models.CompositionState) CompositionRecord {
	score := 0.0
	if state.Report != nil {
		score = state.Report.Overall
	}
	return CompositionRecord{
		ID:        state.ID,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
		Genre:     state.Intent.NormalizedGenre(),
		Seed:      state.Seed,
		Score:     score,
		Turns:     state.Turns,
		State:     StateJSON(*state),
	}
}

// GormStore is a Store backed by a gorm database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore. The compositions table must exist; see
// database.Migrate.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Save upserts a composition
func (s *GormStore) Save(ctx context.Context, state *models.CompositionState) error {
	if state == nil || state.ID == "" {
		return errors.New("composition has no id")
	}
	record := newRecord(state)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "genre", "seed", "score", "turns", "state"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save composition: %w", err)
	}
	return nil
}

// Get loads a composition
func (s *GormStore) Get(ctx context.Context, id string) (*models.CompositionState, error) {
	var record CompositionRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load composition: %w", err)
	}
	state := models.CompositionState(record.State)
	return &state, nil
}

// Delete removes a composition
func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&CompositionRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete composition: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
