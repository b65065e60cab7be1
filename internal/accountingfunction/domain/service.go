package domain

import (
	"context"

	"github.com/smallbiznis/partita/internal/ledgererr"
)

type PredefinedLineInput struct {
	AccountID   string `json:"account_id"`
	Side        string `json:"side"`
	Description string `json:"description"`
	Role        string `json:"role"`
}

type CreateFunctionRequest struct {
	Name     string                `json:"name"`
	Key      string                `json:"key"`
	Category string                `json:"category"`
	Type     string                `json:"type"`
	Lines    []PredefinedLineInput `json:"lines"`
}

// UpdateFunctionRequest lists the updatable fields; nil means unchanged.
type UpdateFunctionRequest struct {
	ID       string                 `json:"-"`
	Name     *string                `json:"name,omitempty"`
	Key      *string                `json:"key,omitempty"`
	Category *string                `json:"category,omitempty"`
	Type     *string                `json:"type,omitempty"`
	Lines    *[]PredefinedLineInput `json:"lines,omitempty"`
}

type ListFunctionsRequest struct {
	Category string `form:"category"`
}

type Service interface {
	CreateFunction(ctx context.Context, req CreateFunctionRequest) (AccountingFunction, error)
	UpdateFunction(ctx context.Context, req UpdateFunctionRequest) (AccountingFunction, error)
	GetFunction(ctx context.Context, id string) (AccountingFunction, error)
	ListFunctions(ctx context.Context, req ListFunctionsRequest) ([]AccountingFunction, error)
	DeleteFunction(ctx context.Context, id string) error
}

var (
	ErrInvalidCompany  = ledgererr.Validation("invalid_company")
	ErrInvalidID       = ledgererr.Validation("invalid_function_id")
	ErrInvalidName     = ledgererr.Validation("invalid_function_name")
	ErrInvalidKey      = ledgererr.Validation("invalid_function_key")
	ErrInvalidCategory = ledgererr.Validation("invalid_function_category")
	ErrInvalidType     = ledgererr.Validation("invalid_function_type")
	ErrInvalidLine     = ledgererr.Validation("invalid_predefined_line")
	ErrDuplicateRole   = ledgererr.Validation("duplicate_predefined_line_role")
	ErrLineAccount     = ledgererr.Validation("predefined_line_account_not_postable")
	ErrDuplicateKey    = ledgererr.Validation("duplicate_function_key")
	ErrNotFound        = ledgererr.NotFound("accounting_function_not_found")
	ErrAccountNotFound = ledgererr.NotFound("predefined_line_account_not_found")
	ErrFunctionInUse   = ledgererr.ReferentialIntegrity("accounting_function_in_use")
	ErrCodeConflict    = ledgererr.Concurrency("accounting_function_code_conflict")
)
