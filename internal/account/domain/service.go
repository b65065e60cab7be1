package domain

import (
	"context"

	"github.com/smallbiznis/partita/internal/ledgererr"
)

type CreateAccountRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	Nature      string `json:"nature"`
}

type MoveAccountRequest struct {
	ID          string `json:"-"`
	NewParentID string `json:"new_parent_id"`
}

type ListAccountsRequest struct {
	Kind       string `form:"kind"`
	Nature     string `form:"nature"`
	CodePrefix string `form:"code_prefix"`
}

type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (Account, error)
	GetAccount(ctx context.Context, id string) (Account, error)
	ListAccounts(ctx context.Context, req ListAccountsRequest) ([]Account, error)
	ListTree(ctx context.Context) ([]*TreeNode, error)
	MoveAccount(ctx context.Context, req MoveAccountRequest) (Account, error)
	DeleteAccount(ctx context.Context, id string) error
	SetLocked(ctx context.Context, id string, locked bool) (Account, error)
	UpdateDescription(ctx context.Context, id string, description string) (Account, error)
}

var (
	ErrInvalidCompany     = ledgererr.Validation("invalid_company")
	ErrInvalidID          = ledgererr.Validation("invalid_account_id")
	ErrInvalidKind        = ledgererr.Validation("invalid_account_kind")
	ErrInvalidNature      = ledgererr.Validation("invalid_account_nature")
	ErrNatureRequired     = ledgererr.Validation("account_nature_required")
	ErrInvalidDescription = ledgererr.Validation("invalid_account_description")
	ErrInvalidParent      = ledgererr.Validation("invalid_parent_account")
	ErrInvalidMove        = ledgererr.Validation("invalid_account_move")
	ErrCodeOverflow       = ledgererr.Validation("account_code_overflow")
	ErrNotFound           = ledgererr.NotFound("account_not_found")
	ErrParentNotFound     = ledgererr.NotFound("parent_account_not_found")
	ErrHasChildren        = ledgererr.ReferentialIntegrity("account_has_children")
	ErrReferenced         = ledgererr.ReferentialIntegrity("account_referenced")
	ErrCodeConflict       = ledgererr.Concurrency("account_code_conflict")
)
