package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionStaleFlagged = "STALE_FLAGGED"
	ActionCSVExport    = "CSV_EXPORT"
	ActionXLSXExport   = "XLSX_EXPORT"
	ActionPayment      = "PAYMENT_RECORDED"
	ActionReviewToggle = "REVIEW_PUBLISHED"
)

// Entry is one row of the table-agnostic change log. ChangedBy is nil for
// system jobs.
type Entry struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Table     string         `json:"table_name" gorm:"column:table_name;type:varchar(64);not null;index"`
	RecordID  *string        `json:"record_id,omitempty" gorm:"type:varchar(64);index"`
	Action    string         `json:"action" gorm:"type:varchar(32);not null;index"`
	OldValues datatypes.JSON `json:"old_values"`
	NewValues datatypes.JSON `json:"new_values"`
	ChangedBy *uuid.UUID     `json:"changed_by,omitempty" gorm:"type:uuid"`
	Notes     string         `json:"notes,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

func (Entry) TableName() string {
	return "audit_log"
}
