package service

import (
	"github.com/sakif/skillswap/internal/model"
)

// TransitionPolicy decides whether actorID may move swap to status next.
// Authorization (actor is a party to the swap) is checked before the policy
// is consulted, so implementations only rule on the status graph.
type TransitionPolicy interface {
	Allow(swap *model.SwapRequest, actorID string, next model.SwapStatus) bool
}

// PermissivePolicy lets either party set any status from any status.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(*model.SwapRequest, string, model.SwapStatus) bool { return true }

// party identifies which side of a swap the actor is on.
type party int

const (
	requester party = 1 << iota
	requestedUser

	eitherParty = requester | requestedUser
)

// StrictPolicy enforces the lifecycle table below. Terminal states
// (rejected, completed, cancelled) have no successors.
//
//	pending  -> accepted, rejected  by the requested user
//	pending  -> cancelled           by the requester
//	accepted -> completed           by either party
//	accepted -> cancelled           by either party
type StrictPolicy struct{}

var strictTransitions = map[model.SwapStatus]map[model.SwapStatus]party{
	model.SwapPending: {
		model.SwapAccepted:  requestedUser,
		model.SwapRejected:  requestedUser,
		model.SwapCancelled: requester,
	},
	model.SwapAccepted: {
		model.SwapCompleted: eitherParty,
		model.SwapCancelled: eitherParty,
	},
}

func (StrictPolicy) Allow(swap *model.SwapRequest, actorID string, next model.SwapStatus) bool {
	allowed, ok := strictTransitions[swap.Status][next]
	if !ok {
		return false
	}

	var actor party
	if swap.RequesterID == actorID {
		actor |= requester
	}
	if swap.RequestedUserID == actorID {
		actor |= requestedUser
	}
	return actor&allowed != 0
}

// PolicyFor returns StrictPolicy when strict is set and PermissivePolicy
// otherwise.
func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}
