package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

func newTestSwapDB(t *testing.T) (*SwapDB, *model.User, *model.User) {
	t.Helper()
	db := newTestDB(t)
	u := db.Users()
	alice := createTestUser(t, u, "alice@example.com", nil, "Spanish")
	bob := createTestUser(t, u, "bob@example.com", nil, "Guitar")
	return db.Swaps(), alice, bob
}

func createTestSwap(t *testing.T, s *SwapDB, from, to *model.User) *model.SwapRequest {
	t.Helper()
	swap := &model.SwapRequest{
		RequesterID:     from.ID,
		RequestedUserID: to.ID,
		RequesterSkill:  "Spanish",
		RequestedSkill:  "Guitar",
	}
	if err := s.Create(context.Background(), swap); err != nil {
		t.Fatalf("failed to create test swap: %v", err)
	}
	return swap
}

func setStatus(t *testing.T, s *SwapDB, swap *model.SwapRequest, status model.SwapStatus) {
	t.Helper()
	swap.Status = status
	if err := s.UpdateStatus(context.Background(), swap); err != nil {
		t.Fatalf("UpdateStatus(%s) error = %v", status, err)
	}
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestSwapCreate(t *testing.T) {
	s, alice, bob := newTestSwapDB(t)

	msg := "Let's trade!"
	swap := &model.SwapRequest{
		RequesterID:     alice.ID,
		RequestedUserID: bob.ID,
		RequesterSkill:  "Spanish",
		RequestedSkill:  "Guitar",
		Message:         &msg,
	}
	if err := s.Create(context.Background(), swap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if swap.ID == "" {
		t.Error("Create() did not set swap.ID")
	}
	if swap.Status != model.SwapPending {
		t.Errorf("Status = %q, want pending", swap.Status)
	}

	got, err := s.GetByID(context.Background(), swap.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Message == nil || *got.Message != msg {
		t.Errorf("Message = %v, want %q", got.Message, msg)
	}
	if got.RequesterID != alice.ID || got.RequestedUserID != bob.ID {
		t.Errorf("parties = %s -> %s", got.RequesterID, got.RequestedUserID)
	}
}

func TestSwapGetByID_NotFound(t *testing.T) {
	s, _, _ := newTestSwapDB(t)

	_, err := s.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSwapCreate_OneActivePerPair(t *testing.T) {
	s, alice, bob := newTestSwapDB(t)
	first := createTestSwap(t, s, alice, bob)

	dup := &model.SwapRequest{RequesterID: alice.ID, RequestedUserID: bob.ID, RequesterSkill: "Spanish", RequestedSkill: "Guitar"}
	if err := s.Create(context.Background(), dup); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate error = %v, want ErrConflict", err)
	}

	// The reverse direction is a different pair.
	createTestSwap(t, s, bob, alice)

	// Once the first request is no longer active a new one may be created.
	setStatus(t, s, first, model.SwapRejected)
	createTestSwap(t, s, alice, bob)
}

func TestSwapUpdateStatus_ReactivationAllowed(t *testing.T) {
	s, alice, bob := newTestSwapDB(t)
	ctx := context.Background()
	old := createTestSwap(t, s, alice, bob)
	setStatus(t, s, old, model.SwapRejected)
	createTestSwap(t, s, alice, bob)

	// Only inserts check for an active request; updates never conflict.
	setStatus(t, s, old, model.SwapAccepted)

	got, err := s.GetByID(ctx, old.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != model.SwapAccepted {
		t.Errorf("Status = %q, want %q", got.Status, model.SwapAccepted)
	}

	n, err := s.Count(ctx, repository.SwapFilter{
		RequesterID: alice.ID,
		Statuses:    []model.SwapStatus{model.SwapPending, model.SwapAccepted},
	})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("active count = %d, want 2", n)
	}

	// With two active requests on the pair, a new one is still refused.
	dup := &model.SwapRequest{RequesterID: alice.ID, RequestedUserID: bob.ID, RequesterSkill: "Spanish", RequestedSkill: "Guitar"}
	if err := s.Create(ctx, dup); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestSwapCreate_InactiveStatusSkipsDuplicateCheck(t *testing.T) {
	s, alice, bob := newTestSwapDB(t)
	createTestSwap(t, s, alice, bob)

	done := &model.SwapRequest{
		RequesterID:     alice.ID,
		RequestedUserID: bob.ID,
		RequesterSkill:  "Spanish",
		RequestedSkill:  "Guitar",
		Status:          model.SwapCompleted,
	}
	if err := s.Create(context.Background(), done); err != nil {
		t.Fatalf("Create() completed request error = %v", err)
	}
}

func TestSwapUpdateStatus_NotFound(t *testing.T) {
	s, _, _ := newTestSwapDB(t)

	err := s.UpdateStatus(context.Background(), &model.SwapRequest{ID: "missing", Status: model.SwapAccepted})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST / COUNT TESTS
// =========================================================================

func TestSwapListAndCount(t *testing.T) {
	s, alice, bob := newTestSwapDB(t)
	ctx := context.Background()

	sent1 := createTestSwap(t, s, alice, bob)
	setStatus(t, s, sent1, model.SwapCompleted)
	sent2 := createTestSwap(t, s, alice, bob)
	received := createTestSwap(t, s, bob, alice)
	setStatus(t, s, received, model.SwapAccepted)

	tests := []struct {
		name    string
		filter  repository.SwapFilter
		wantIDs []string
	}{
		{"sent", repository.SwapFilter{RequesterID: alice.ID}, []string{sent1.ID, sent2.ID}},
		{"received", repository.SwapFilter{RequestedUserID: alice.ID}, []string{received.ID}},
		{"pending sent", repository.SwapFilter{RequesterID: alice.ID, Statuses: []model.SwapStatus{model.SwapPending}}, []string{sent2.ID}},
		{"accepted either side", repository.SwapFilter{Party: alice.ID, Statuses: []model.SwapStatus{model.SwapAccepted}}, []string{received.ID}},
		{"all for party", repository.SwapFilter{Party: bob.ID}, []string{sent1.ID, sent2.ID, received.ID}},
		{"limit", repository.SwapFilter{Party: bob.ID, Limit: 1}, []string{sent1.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("List() returned %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("result[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}

			if tt.filter.Limit == 0 {
				n, err := s.Count(ctx, tt.filter)
				if err != nil {
					t.Fatalf("Count() error = %v", err)
				}
				if n != len(tt.wantIDs) {
					t.Errorf("Count() = %d, want %d", n, len(tt.wantIDs))
				}
			}
		})
	}
}

func TestSwapList_EmptyIsNotNil(t *testing.T) {
	s, alice, _ := newTestSwapDB(t)

	got, err := s.List(context.Background(), repository.SwapFilter{RequesterID: alice.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got == nil {
		t.Error("List() returned nil, want empty slice")
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestSwapDelete(t *testing.T) {
	s, alice, bob := newTestSwapDB(t)
	swap := createTestSwap(t, s, alice, bob)

	if err := s.Delete(context.Background(), swap.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := s.GetByID(context.Background(), swap.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(context.Background(), swap.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
