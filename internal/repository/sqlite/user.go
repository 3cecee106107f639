package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores users and their profiles in the users table.
//
// Skill sets are stored as JSON arrays in TEXT columns. SQLite's json_each
// table-valued function lets search look inside them without a join table.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, email, password_hash, name, location, profile_photo,
	skills_offered, skills_wanted, availability, is_profile_public, role,
	created_at, updated_at`

// Create inserts a new user. ID and timestamps are assigned here and written
// back into user. A duplicate email returns apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	offered, err := encodeSkills(user.SkillsOffered)
	if err != nil {
		return err
	}
	wanted, err := encodeSkills(user.SkillsWanted)
	if err != nil {
		return err
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	now := time.Now().UTC()
	id := xid.New().String()

	_, err = u.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		user.Email,
		user.PasswordHash,
		user.Name,
		nullString(user.Location),
		nullString(user.ProfilePhoto),
		offered,
		wanted,
		nullString(user.Availability),
		user.IsProfilePublic,
		string(user.Role),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Email already registered")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Email, err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email. Emails are stored normalized, so the
// caller is expected to pass a normalized address.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("user not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// UpdateProfile overwrites the mutable profile fields of an existing user and
// refreshes updated_at. Email, password hash and role are left untouched.
func (u *UserDB) UpdateProfile(ctx context.Context, user *model.User) error {
	offered, err := encodeSkills(user.SkillsOffered)
	if err != nil {
		return err
	}
	wanted, err := encodeSkills(user.SkillsWanted)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, location = ?, profile_photo = ?, skills_offered = ?,
		     skills_wanted = ?, availability = ?, is_profile_public = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		nullString(user.Location),
		nullString(user.ProfilePhoto),
		offered,
		wanted,
		nullString(user.Availability),
		user.IsProfilePublic,
		now,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user", user.ID)
	}

	user.UpdatedAt = now
	return nil
}

// SearchPublic returns public profiles matching the filter, oldest first.
//
// Skill matches when any offered skill contains filter.Skill and Location
// matches when the location contains filter.Location, both ignoring case.
// A user without a location never matches a location filter.
func (u *UserDB) SearchPublic(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	where := []string{"is_profile_public = 1"}
	var args []any

	if filter.ExcludeID != "" {
		where = append(where, "id != ?")
		args = append(args, filter.ExcludeID)
	}
	if filter.Skill != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM json_each(users.skills_offered)
			WHERE instr(lower(json_each.value), lower(?)) > 0)`)
		args = append(args, filter.Skill)
	}
	if filter.Location != "" {
		where = append(where, "location IS NOT NULL AND instr(lower(location), lower(?)) > 0")
		args = append(args, filter.Location)
	}
	args = append(args, clampLimit(filter.Limit))

	query := `SELECT ` + userColumns + ` FROM users
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY rowid
		LIMIT ?`

	rows, err := u.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		user                   model.User
		location, photo, avail sql.NullString
		offered, wanted        string
		role                   string
	)
	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&location,
		&photo,
		&offered,
		&wanted,
		&avail,
		&user.IsProfilePublic,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Location = stringPtr(location)
	user.ProfilePhoto = stringPtr(photo)
	user.Availability = stringPtr(avail)
	user.Role = model.Role(role)

	if user.SkillsOffered, err = decodeSkills(offered); err != nil {
		return nil, err
	}
	if user.SkillsWanted, err = decodeSkills(wanted); err != nil {
		return nil, err
	}
	return &user, nil
}

func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding skills: %w", err)
	}
	return string(b), nil
}

func decodeSkills(raw string) ([]string, error) {
	skills := []string{}
	if raw == "" {
		return skills, nil
	}
	if err := json.Unmarshal([]byte(raw), &skills); err != nil {
		return nil, fmt.Errorf("sqlite: decoding skills %q: %w", raw, err)
	}
	if skills == nil {
		skills = []string{}
	}
	return skills, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > repository.MaxResults {
		return repository.MaxResults
	}
	return limit
}
