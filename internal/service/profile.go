package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

// ProfileService handles profile edits, public lookups and search. The only
// rule is ownership: a user edits their own profile and nobody else's, which
// the handler guarantees by always passing the authenticated caller.
type ProfileService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(users repository.UserRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, logger: logger}
}

// Update replaces every mutable profile field of user with p and returns the
// stored result. Applying the same profile twice leaves the same state apart
// from updated_at.
func (s *ProfileService) Update(ctx context.Context, user *model.User, p model.Profile) (*model.User, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	p.Location = trimOptional(p.Location)
	p.ProfilePhoto = trimOptional(p.ProfilePhoto)
	p.Availability = trimOptional(p.Availability)
	p.SkillsOffered = NormalizeSkills(p.SkillsOffered)
	p.SkillsWanted = NormalizeSkills(p.SkillsWanted)

	updated := *user
	p.Apply(&updated)

	if err := s.users.UpdateProfile(ctx, &updated); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/profile: updating user %s: %w", user.ID, err)
	}

	s.logger.Info("profile updated",
		slog.String("userID", updated.ID),
		slog.Int("skillsOffered", len(updated.SkillsOffered)),
		slog.Bool("public", updated.IsProfilePublic),
	)

	return &updated, nil
}

// Search returns up to repository.MaxResults public profiles, other than the
// caller's own, whose offered skills and location contain the given
// substrings. Blank arguments do not constrain the search.
func (s *ProfileService) Search(ctx context.Context, caller *model.User, skill, location string) ([]model.User, error) {
	users, err := s.users.SearchPublic(ctx, repository.UserFilter{
		Skill:     strings.TrimSpace(skill),
		Location:  strings.TrimSpace(location),
		ExcludeID: caller.ID,
		Limit:     repository.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("service/profile: searching users: %w", err)
	}
	return users, nil
}

// GetPublic returns the profile with the given ID if it is public. Private
// and missing profiles are indistinguishable to the caller.
func (s *ProfileService) GetPublic(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/profile: loading user %s: %w", id, err)
	}
	if user == nil || !user.IsProfilePublic {
		return nil, apperror.NotFoundMessage("User not found or profile is private")
	}
	return user, nil
}

// NormalizeSkills trims every entry, drops empty ones and removes exact
// duplicates, keeping the first occurrence. The result is never nil.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
