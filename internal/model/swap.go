package model

import "time"

// SwapStatus is the lifecycle state of a swap request.
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCompleted SwapStatus = "completed"
	SwapCancelled SwapStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapPending, SwapAccepted, SwapRejected, SwapCompleted, SwapCancelled:
		return true
	}
	return false
}

// Active reports whether a request in this status blocks a new request
// between the same pair of users.
func (s SwapStatus) Active() bool {
	return s == SwapPending || s == SwapAccepted
}

// SwapRequest is a proposal from one user to trade one of their offered
// skills for one of another user's offered skills.
//
// Requester and RequestedUser reference users by ID. Those references are
// checked when the request is created and never again.
type SwapRequest struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requester_id"`
	RequestedUserID string     `json:"requested_user_id"`
	RequesterSkill  string     `json:"requester_skill"`
	RequestedSkill  string     `json:"requested_skill"`
	Message         *string    `json:"message"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsParty reports whether userID is the requester or the requested user.
func (s *SwapRequest) IsParty(userID string) bool {
	return s.RequesterID == userID || s.RequestedUserID == userID
}

// DashboardStats summarises a user's swap activity.
type DashboardStats struct {
	SentRequests     int `json:"sent_requests"`
	ReceivedRequests int `json:"received_requests"`
	PendingSent      int `json:"pending_sent"`
	PendingReceived  int `json:"pending_received"`
	ActiveSwaps      int `json:"active_swaps"`
}
