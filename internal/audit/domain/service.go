package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/partita/internal/ledgererr"
	"github.com/smallbiznis/partita/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// AuditLog writes a record outside of any caller transaction.
	AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error
	// AuditLogTx writes a record inside tx so it commits or rolls back with the mutation.
	AuditLogTx(ctx context.Context, tx *gorm.DB, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidCompany   = ledgererr.Validation("invalid_company")
	ErrInvalidPageToken = ledgererr.Validation("invalid_page_token")
	ErrInvalidTimeRange = ledgererr.Validation("invalid_time_range")
	ErrInvalidAction    = ledgererr.Validation("invalid_action")
)
