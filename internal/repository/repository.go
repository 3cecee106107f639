// Package repository declares the storage contracts the services depend on.
// internal/repository/sqlite implements them; service tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/skillswap/internal/model"
)

// MaxResults caps every list and search query.
const MaxResults = 100

// UserFilter selects public profiles for search. Empty Skill or Location
// means "no constraint on that field".
type UserFilter struct {
	Skill     string // case-insensitive substring of any offered skill
	Location  string // case-insensitive substring of the location
	ExcludeID string // never returned, typically the caller
	Limit     int
}

// SwapFilter selects swap requests. Zero-valued fields are ignored.
// Party matches records where the user is on either side.
type SwapFilter struct {
	RequesterID     string
	RequestedUserID string
	Party           string
	Statuses        []model.SwapStatus
	Limit           int
}

// UserRepository is the profile and credential store.
//
// Create returns apperror.ErrConflict for a duplicate email. GetByID and
// GetByEmail return apperror.ErrNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	SearchPublic(ctx context.Context, filter UserFilter) ([]model.User, error)
}

// SwapRepository stores swap requests.
//
// Create returns apperror.ErrConflict when an active (pending or accepted)
// swap is inserted for a (requester, requested user) pair that already has
// one. UpdateStatus never conflicts.
type SwapRepository interface {
	Create(ctx context.Context, swap *model.SwapRequest) error
	GetByID(ctx context.Context, id string) (*model.SwapRequest, error)
	List(ctx context.Context, filter SwapFilter) ([]model.SwapRequest, error)
	Count(ctx context.Context, filter SwapFilter) (int, error)
	UpdateStatus(ctx context.Context, swap *model.SwapRequest) error
	Delete(ctx context.Context, id string) error
}
