package admin

import (
	"context"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/domain/stats"
	"cleandigo/internal/domain/sweeper"
)

type Gate interface {
	Export(ctx context.Context, c access.Caller, f export.Filter, format export.Format) (*export.Result, error)
	Dashboard(ctx context.Context, c access.Caller) (*stats.Dashboard, error)
	Sweep(ctx context.Context, c access.Caller, thresholdHours int) (*sweeper.Summary, error)
	AuditLog(ctx context.Context, c access.Caller, f audit.Filter) ([]audit.Entry, error)
}
