package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
)

func TestStrictPolicy(t *testing.T) {
	const (
		req = "requester"
		tgt = "target"
		out = "outsider"
	)

	all := []model.SwapStatus{
		model.SwapPending, model.SwapAccepted, model.SwapRejected, model.SwapCompleted, model.SwapCancelled,
	}

	type move struct {
		from  model.SwapStatus
		to    model.SwapStatus
		actor string
	}
	allowed := map[move]bool{
		{model.SwapPending, model.SwapAccepted, tgt}:   true,
		{model.SwapPending, model.SwapRejected, tgt}:   true,
		{model.SwapPending, model.SwapCancelled, req}:  true,
		{model.SwapAccepted, model.SwapCompleted, req}: true,
		{model.SwapAccepted, model.SwapCompleted, tgt}: true,
		{model.SwapAccepted, model.SwapCancelled, req}: true,
		{model.SwapAccepted, model.SwapCancelled, tgt}: true,
	}

	var policy StrictPolicy
	for _, from := range all {
		for _, to := range all {
			for _, actor := range []string{req, tgt, out} {
				swap := &model.SwapRequest{RequesterID: req, RequestedUserID: tgt, Status: from}
				got := policy.Allow(swap, actor, to)
				assert.Equal(t, allowed[move{from, to, actor}], got, "%s -> %s by %s", from, to, actor)
			}
		}
	}
}

func TestPermissivePolicy_AllowsEverything(t *testing.T) {
	swap := &model.SwapRequest{RequesterID: "a", RequestedUserID: "b", Status: model.SwapCompleted}
	assert.True(t, PermissivePolicy{}.Allow(swap, "a", model.SwapPending))
	assert.True(t, PermissivePolicy{}.Allow(swap, "b", model.SwapCancelled))
}

func TestPolicyFor(t *testing.T) {
	assert.IsType(t, StrictPolicy{}, PolicyFor(true))
	assert.IsType(t, PermissivePolicy{}, PolicyFor(false))
}

func TestSwapService_StrictPolicy(t *testing.T) {
	f := newSwapFixture(t, StrictPolicy{})
	ctx := context.Background()

	swap, err := f.svc.Create(ctx, f.alice, f.aliceAsksBob())
	require.NoError(t, err)

	// The requester cannot accept their own request.
	_, err = f.svc.UpdateStatus(ctx, swap.ID, f.alice.ID, model.SwapAccepted)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// Pending cannot jump straight to completed.
	_, err = f.svc.UpdateStatus(ctx, swap.ID, f.bob.ID, model.SwapCompleted)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.UpdateStatus(ctx, swap.ID, f.bob.ID, model.SwapAccepted)
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, swap.ID, f.alice.ID, model.SwapCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.SwapCompleted, got.Status)

	// Completed is terminal.
	_, err = f.svc.UpdateStatus(ctx, swap.ID, f.alice.ID, model.SwapPending)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
