// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the account role. It is stored and returned but grants nothing
// extra in the current API.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account together with its public profile.
//
// The password hash lives on the struct so the repository can round-trip it,
// but the `json:"-"` tag guarantees it never leaves the server in a response.
//
// WHY POINTERS FOR location, profile_photo AND availability?
// These fields are optional. A nil pointer serializes to JSON null and maps to
// SQL NULL, which keeps "not set" distinct from "set to empty string".
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Name            string    `json:"name"`
	Location        *string   `json:"location"`
	ProfilePhoto    *string   `json:"profile_photo"`
	SkillsOffered   []string  `json:"skills_offered"`
	SkillsWanted    []string  `json:"skills_wanted"`
	Availability    *string   `json:"availability"`
	IsProfilePublic bool      `json:"is_profile_public"`
	Role            Role      `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Offers reports whether skill is one of the user's offered skills.
// Matching is exact, the same way the skill was stored.
func (u *User) Offers(skill string) bool {
	for _, s := range u.SkillsOffered {
		if s == skill {
			return true
		}
	}
	return false
}

// Profile is the set of mutable profile fields. An update replaces all of them.
type Profile struct {
	Name            string
	Location        *string
	ProfilePhoto    *string
	SkillsOffered   []string
	SkillsWanted    []string
	Availability    *string
	IsProfilePublic bool
}

// Apply copies every profile field onto the user.
func (p Profile) Apply(u *User) {
	u.Name = p.Name
	u.Location = p.Location
	u.ProfilePhoto = p.ProfilePhoto
	u.SkillsOffered = p.SkillsOffered
	u.SkillsWanted = p.SkillsWanted
	u.Availability = p.Availability
	u.IsProfilePublic = p.IsProfilePublic
}
