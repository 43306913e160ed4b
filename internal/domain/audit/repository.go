package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cleandigo/internal/database"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = func() time.Time { return now().UTC() }
	return r
}

// Record is the input for Append. Values are marshalled to JSON.
type Record struct {
	Table     string
	RecordID  string
	Action    string
	OldValues any
	NewValues any
	ChangedBy *uuid.UUID
	Notes     string
}

func (r *Repository) Append(ctx context.Context, rec Record) (*Entry, error) {
	e := &Entry{
		Table:     rec.Table,
		Action:    rec.Action,
		ChangedBy: rec.ChangedBy,
		Notes:     rec.Notes,
		CreatedAt: r.now(),
	}
	if rec.RecordID != "" {
		id := rec.RecordID
		e.RecordID = &id
	}
	var err error
	if e.OldValues, err = toJSON(rec.OldValues); err != nil {
		return nil, err
	}
	if e.NewValues, err = toJSON(rec.NewValues); err != nil {
		return nil, err
	}
	if err := database.Conn(ctx, r.db).Create(e).Error; err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	return e, nil
}

// toJSON encodes a missing value as the JSON literal null so the column
// never holds SQL NULL.
func toJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode audit values: %w", err)
	}
	return datatypes.JSON(b), nil
}

type Filter struct {
	Table    string
	RecordID string
	Action   string
	Limit    int
}

// List returns entries newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Entry, error) {
	q := database.Conn(ctx, r.db).Model(&Entry{})
	if f.Table != "" {
		q = q.Where("table_name = ?", f.Table)
	}
	if f.RecordID != "" {
		q = q.Where("record_id = ?", f.RecordID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []Entry
	err := q.Order("created_at desc, id desc").Limit(limit).Find(&out).Error
	return out, err
}
