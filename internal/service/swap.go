// Package service contains the business rules of the application.
//
//	Handler (HTTP layer)     -> parses requests, writes responses
//	Service (business layer) -> validates, enforces rules, orchestrates
//	Repository (data layer)  -> reads/writes the database
//
// Services depend on the repository interfaces, never on the sqlite package,
// so their tests run against in-memory fakes. Every method takes the already
// authenticated caller; none of them reads tokens or HTTP state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/metrics"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

// SwapService owns the swap request lifecycle: creation preconditions,
// status changes, deletion and the per-user queries.
type SwapService struct {
	users  repository.UserRepository
	swaps  repository.SwapRepository
	policy TransitionPolicy
	logger *slog.Logger
}

// NewSwapService creates a SwapService. A nil policy means PermissivePolicy.
func NewSwapService(
	users repository.UserRepository,
	swaps repository.SwapRepository,
	policy TransitionPolicy,
	logger *slog.Logger,
) *SwapService {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	return &SwapService{
		users:  users,
		swaps:  swaps,
		policy: policy,
		logger: logger,
	}
}

// CreateSwapInput is what the requester supplies for a new swap request.
type CreateSwapInput struct {
	RequestedUserID string
	RequesterSkill  string
	RequestedSkill  string
	Message         *string
}

var activeStatuses = []model.SwapStatus{model.SwapPending, model.SwapAccepted}

// Create proposes a swap from requester to the requested user.
//
// Preconditions are checked in order and the first failure wins:
//  1. the requested user exists (NotFound)
//  2. the requested user offers RequestedSkill (Validation)
//  3. the requester's stored profile offers RequesterSkill (Validation)
//  4. no pending or accepted request exists for this pair (Conflict)
//
// Check 4 is a read followed by a write. The repository repeats it inside
// the insert, so a racing duplicate comes back as the same Conflict.
func (s *SwapService) Create(ctx context.Context, requester *model.User, in CreateSwapInput) (*model.SwapRequest, error) {
	target, err := s.users.GetByID(ctx, in.RequestedUserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Target user not found")
		}
		return nil, fmt.Errorf("service/swap: loading target user %s: %w", in.RequestedUserID, err)
	}

	if !target.Offers(in.RequestedSkill) {
		return nil, apperror.ValidationFailed("requested_skill", "Target user doesn't offer this skill")
	}
	if !requester.Offers(in.RequesterSkill) {
		return nil, apperror.ValidationFailed("requester_skill", "You don't offer this skill")
	}

	active, err := s.swaps.Count(ctx, repository.SwapFilter{
		RequesterID:     requester.ID,
		RequestedUserID: target.ID,
		Statuses:        activeStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("service/swap: checking for active requests: %w", err)
	}
	if active > 0 {
		return nil, apperror.Conflict("You already have a pending or accepted request with this user")
	}

	swap := &model.SwapRequest{
		RequesterID:     requester.ID,
		RequestedUserID: target.ID,
		RequesterSkill:  in.RequesterSkill,
		RequestedSkill:  in.RequestedSkill,
		Message:         trimOptional(in.Message),
		Status:          model.SwapPending,
	}
	if err := s.swaps.Create(ctx, swap); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/swap: creating request: %w", err)
	}

	metrics.SwapsCreated.Inc()
	s.logger.Info("swap request created",
		slog.String("swapID", swap.ID),
		slog.String("requesterID", swap.RequesterID),
		slog.String("requestedUserID", swap.RequestedUserID),
	)

	return swap, nil
}

// UpdateStatus moves a swap to status next on behalf of actorID. Either
// party may act; which moves are legal is up to the TransitionPolicy.
func (s *SwapService) UpdateStatus(ctx context.Context, swapID, actorID string, next model.SwapStatus) (*model.SwapRequest, error) {
	if !next.Valid() {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of pending, accepted, rejected, completed, cancelled, got %q", next))
	}

	swap, err := s.getSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}

	if !swap.IsParty(actorID) {
		return nil, apperror.Forbidden("Not authorized to update this request")
	}
	if !s.policy.Allow(swap, actorID, next) {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("cannot change status from %s to %s", swap.Status, next))
	}

	previous := swap.Status
	swap.Status = next
	if err := s.swaps.UpdateStatus(ctx, swap); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/swap: updating request %s: %w", swapID, err)
	}

	metrics.SwapStatusChanges.WithLabelValues(string(next)).Inc()
	s.logger.Info("swap status changed",
		slog.String("swapID", swap.ID),
		slog.String("actorID", actorID),
		slog.String("from", string(previous)),
		slog.String("to", string(next)),
	)

	return swap, nil
}

// Delete permanently removes a swap. Only the requester may delete, in any
// status.
func (s *SwapService) Delete(ctx context.Context, swapID, actorID string) error {
	swap, err := s.getSwap(ctx, swapID)
	if err != nil {
		return err
	}

	if swap.RequesterID != actorID {
		return apperror.Forbidden("Not authorized to delete this request")
	}

	if err := s.swaps.Delete(ctx, swapID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/swap: deleting request %s: %w", swapID, err)
	}

	metrics.SwapsDeleted.Inc()
	s.logger.Info("swap request deleted",
		slog.String("swapID", swapID),
		slog.String("status", string(swap.Status)),
	)
	return nil
}

// ListSent returns the requests userID has made, oldest first.
func (s *SwapService) ListSent(ctx context.Context, userID string) ([]model.SwapRequest, error) {
	swaps, err := s.swaps.List(ctx, repository.SwapFilter{
		RequesterID: userID,
		Limit:       repository.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("service/swap: listing sent requests: %w", err)
	}
	return swaps, nil
}

// ListReceived returns the requests addressed to userID, oldest first.
func (s *SwapService) ListReceived(ctx context.Context, userID string) ([]model.SwapRequest, error) {
	swaps, err := s.swaps.List(ctx, repository.SwapFilter{
		RequestedUserID: userID,
		Limit:           repository.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("service/swap: listing received requests: %w", err)
	}
	return swaps, nil
}

// DashboardStats counts userID's requests. ActiveSwaps is the number of
// accepted requests with userID on either side.
func (s *SwapService) DashboardStats(ctx context.Context, userID string) (*model.DashboardStats, error) {
	pending := []model.SwapStatus{model.SwapPending}
	accepted := []model.SwapStatus{model.SwapAccepted}

	var stats model.DashboardStats
	counts := []struct {
		dst    *int
		filter repository.SwapFilter
	}{
		{&stats.SentRequests, repository.SwapFilter{RequesterID: userID}},
		{&stats.ReceivedRequests, repository.SwapFilter{RequestedUserID: userID}},
		{&stats.PendingSent, repository.SwapFilter{RequesterID: userID, Statuses: pending}},
		{&stats.PendingReceived, repository.SwapFilter{RequestedUserID: userID, Statuses: pending}},
		{&stats.ActiveSwaps, repository.SwapFilter{Party: userID, Statuses: accepted}},
	}

	for _, c := range counts {
		n, err := s.swaps.Count(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("service/swap: computing dashboard stats: %w", err)
		}
		*c.dst = n
	}

	return &stats, nil
}

func (s *SwapService) getSwap(ctx context.Context, id string) (*model.SwapRequest, error) {
	swap, err := s.swaps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Swap request not found")
		}
		return nil, fmt.Errorf("service/swap: loading request %s: %w", id, err)
	}
	return swap, nil
}

// trimOptional trims s and maps an empty result to nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
