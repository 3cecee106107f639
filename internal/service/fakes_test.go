package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory repositories. They follow the same contracts as
// the sqlite package (NotFound, Conflict, insertion order, copies in and
// out) so service tests exercise the real error paths without a database.

type fakeUserRepo struct {
	users  []*model.User
	nextID int

	// set to simulate a database failure
	err error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("Email already registered")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users = append(f.users, &stored)
	return nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool) (*model.User, bool) {
	for _, u := range f.users {
		if match(u) {
			c := *u
			return &c, true
		}
	}
	return nil, false
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.find(func(u *model.User) bool { return u.ID == id }); ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.find(func(u *model.User) bool { return u.Email == email }); ok {
		return u, nil
	}
	return nil, apperror.NotFoundMessage("user not found")
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for i, u := range f.users {
		if u.ID == user.ID {
			user.UpdatedAt = time.Now()
			stored := *user
			f.users[i] = &stored
			return nil
		}
	}
	return apperror.NotFound("user", user.ID)
}

func (f *fakeUserRepo) SearchPublic(_ context.Context, filter repository.UserFilter) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.User{}
	for _, u := range f.users {
		if !u.IsProfilePublic || u.ID == filter.ExcludeID {
			continue
		}
		if filter.Skill != "" && !slices.ContainsFunc(u.SkillsOffered, func(s string) bool {
			return containsFold(s, filter.Skill)
		}) {
			continue
		}
		if filter.Location != "" && (u.Location == nil || !containsFold(*u.Location, filter.Location)) {
			continue
		}
		out = append(out, *u)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// add stores a user directly, bypassing the service under test.
func (f *fakeUserRepo) add(email string, public bool, offered ...string) *model.User {
	u := &model.User{
		Email:           email,
		Name:            email,
		SkillsOffered:   offered,
		SkillsWanted:    []string{},
		IsProfilePublic: public,
		Role:            model.RoleUser,
	}
	if err := f.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

type fakeSwapRepo struct {
	swaps  []*model.SwapRequest
	nextID int

	// set to simulate a database failure
	err error
	// set to make Create report a lost race on the guarded insert
	createConflict bool
}

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{}
}

func (f *fakeSwapRepo) activeDuplicate(s *model.SwapRequest) bool {
	if !s.Status.Active() {
		return false
	}
	for _, other := range f.swaps {
		if other.ID != s.ID && other.Status.Active() &&
			other.RequesterID == s.RequesterID && other.RequestedUserID == s.RequestedUserID {
			return true
		}
	}
	return false
}

func (f *fakeSwapRepo) Create(_ context.Context, swap *model.SwapRequest) error {
	if f.err != nil {
		return f.err
	}
	if f.createConflict || f.activeDuplicate(swap) {
		return apperror.Conflict("You already have a pending or accepted request with this user")
	}
	f.nextID++
	swap.ID = fmt.Sprintf("swap-%d", f.nextID)
	swap.CreatedAt = time.Now()
	swap.UpdatedAt = swap.CreatedAt
	stored := *swap
	f.swaps = append(f.swaps, &stored)
	return nil
}

func (f *fakeSwapRepo) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.swaps {
		if s.ID == id {
			c := *s
			return &c, nil
		}
	}
	return nil, apperror.NotFoundMessage("Swap request not found")
}

func matches(s *model.SwapRequest, filter repository.SwapFilter) bool {
	if filter.RequesterID != "" && s.RequesterID != filter.RequesterID {
		return false
	}
	if filter.RequestedUserID != "" && s.RequestedUserID != filter.RequestedUserID {
		return false
	}
	if filter.Party != "" && !s.IsParty(filter.Party) {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, s.Status) {
		return false
	}
	return true
}

func (f *fakeSwapRepo) List(_ context.Context, filter repository.SwapFilter) ([]model.SwapRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.SwapRequest{}
	for _, s := range f.swaps {
		if matches(s, filter) {
			out = append(out, *s)
			if filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSwapRepo) Count(_ context.Context, filter repository.SwapFilter) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, s := range f.swaps {
		if matches(s, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeSwapRepo) UpdateStatus(_ context.Context, swap *model.SwapRequest) error {
	if f.err != nil {
		return f.err
	}
	for _, s := range f.swaps {
		if s.ID == swap.ID {
			s.Status = swap.Status
			s.UpdatedAt = time.Now()
			swap.UpdatedAt = s.UpdatedAt
			return nil
		}
	}
	return apperror.NotFoundMessage("Swap request not found")
}

func (f *fakeSwapRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	for i, s := range f.swaps {
		if s.ID == id {
			f.swaps = slices.Delete(f.swaps, i, i+1)
			return nil
		}
	}
	return apperror.NotFoundMessage("Swap request not found")
}

// add stores a swap with the given status directly.
func (f *fakeSwapRepo) add(from, to *model.User, status model.SwapStatus) *model.SwapRequest {
	s := &model.SwapRequest{
		RequesterID:     from.ID,
		RequestedUserID: to.ID,
		RequesterSkill:  "x",
		RequestedSkill:  "y",
		Status:          status,
	}
	f.nextID++
	s.ID = fmt.Sprintf("swap-%d", f.nextID)
	stored := *s
	f.swaps = append(f.swaps, &stored)
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
