package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

// compile-time check that *SwapDB implements repository.SwapRepository
var _ repository.SwapRepository = (*SwapDB)(nil)

// SwapDB stores swap requests in the swap_requests table.
//
// Create refuses a pending or accepted request when the same (requester,
// requested user) pair already has one. The rule applies to inserts only;
// status updates may leave several active requests for a pair.
type SwapDB struct {
	conn *sql.DB
}

const swapColumns = `id, requester_id, requested_user_id, requester_skill,
	requested_skill, message, status, created_at, updated_at`

const duplicateSwapMessage = "You already have a pending or accepted request with this user"

// Create inserts a new swap request. ID and timestamps are assigned here;
// an empty status is stored as pending.
//
// The duplicate check and the insert are one statement, so two concurrent
// requests for the same pair cannot both succeed. The loser gets
// apperror.ErrConflict.
func (s *SwapDB) Create(ctx context.Context, swap *model.SwapRequest) error {
	if swap.Status == "" {
		swap.Status = model.SwapPending
	}

	now := time.Now().UTC()
	id := xid.New().String()

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO swap_requests (`+swapColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE ? NOT IN ('pending', 'accepted')
		    OR NOT EXISTS (
		        SELECT 1 FROM swap_requests
		         WHERE requester_id = ? AND requested_user_id = ?
		           AND status IN ('pending', 'accepted'))`,
		id,
		swap.RequesterID,
		swap.RequestedUserID,
		swap.RequesterSkill,
		swap.RequestedSkill,
		nullString(swap.Message),
		string(swap.Status),
		now,
		now,
		string(swap.Status),
		swap.RequesterID,
		swap.RequestedUserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting swap request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.Conflict(duplicateSwapMessage)
	}

	swap.ID = id
	swap.CreatedAt = now
	swap.UpdatedAt = now
	return nil
}

// GetByID retrieves a swap request by ID.
func (s *SwapDB) GetByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests WHERE id = ?`, id)

	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("Swap request not found")
		}
		return nil, fmt.Errorf("sqlite: getting swap request %s: %w", id, err)
	}
	return swap, nil
}

// List returns the swap requests matching filter in insertion order, capped
// at repository.MaxResults.
func (s *SwapDB) List(ctx context.Context, filter repository.SwapFilter) ([]model.SwapRequest, error) {
	where, args := swapWhere(filter)
	args = append(args, clampLimit(filter.Limit))

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests`+where+`
		 ORDER BY rowid
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing swap requests: %w", err)
	}
	defer rows.Close()

	swaps := make([]model.SwapRequest, 0)
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning swap row: %w", err)
		}
		swaps = append(swaps, *swap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating swap rows: %w", err)
	}

	return swaps, nil
}

// Count returns how many swap requests match filter. Limit is ignored.
func (s *SwapDB) Count(ctx context.Context, filter repository.SwapFilter) (int, error) {
	where, args := swapWhere(filter)

	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM swap_requests`+where, args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting swap requests: %w", err)
	}
	return n, nil
}

// UpdateStatus writes swap.Status and refreshes updated_at. Any status is
// accepted, including one that reactivates a pair with another active request.
func (s *SwapDB) UpdateStatus(ctx context.Context, swap *model.SwapRequest) error {
	now := time.Now().UTC()
	result, err := s.conn.ExecContext(ctx,
		`UPDATE swap_requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(swap.Status), now, swap.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating swap request %s: %w", swap.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFoundMessage("Swap request not found")
	}

	swap.UpdatedAt = now
	return nil
}

// Delete removes a swap request permanently.
func (s *SwapDB) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM swap_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting swap request %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFoundMessage("Swap request not found")
	}
	return nil
}

// swapWhere builds the WHERE clause for filter. It returns "" when the filter
// is empty, otherwise a clause with a leading space.
func swapWhere(filter repository.SwapFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.RequesterID != "" {
		conds = append(conds, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.RequestedUserID != "" {
		conds = append(conds, "requested_user_id = ?")
		args = append(args, filter.RequestedUserID)
	}
	if filter.Party != "" {
		conds = append(conds, "(requester_id = ? OR requested_user_id = ?)")
		args = append(args, filter.Party, filter.Party)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSwap(s scanner) (*model.SwapRequest, error) {
	var (
		swap    model.SwapRequest
		message sql.NullString
		status  string
	)
	err := s.Scan(
		&swap.ID,
		&swap.RequesterID,
		&swap.RequestedUserID,
		&swap.RequesterSkill,
		&swap.RequestedSkill,
		&message,
		&status,
		&swap.CreatedAt,
		&swap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	swap.Message = stringPtr(message)
	swap.Status = model.SwapStatus(status)
	return &swap, nil
}
