package authorization

import (
	"context"
	"errors"
)

// Service checks whether the actor in ctx may perform action on object for
// the company in ctx. Role is the caller's role as asserted upstream.
type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidActor   = errors.New("invalid_actor")
	ErrInvalidRole    = errors.New("invalid_role")
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidObject  = errors.New("invalid_object")
	ErrInvalidAction  = errors.New("invalid_action")
)
