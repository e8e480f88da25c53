package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/repository/base"
)

const swapColumns = `id, requester_id, requestee_id, requester_slot_id, requestee_slot_id, status, message, created_at, updated_at`

type SwapRepository struct {
	*base.Repository
}

func NewSwapRepository(pool *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{Repository: base.NewRepository(pool)}
}

func scanSwap(row pgx.Row) (*model.SwapRequest, error) {
	var swap model.SwapRequest
	err := row.Scan(
		&swap.ID,
		&swap.RequesterID,
		&swap.RequesteeID,
		&swap.RequesterSlotID,
		&swap.RequesteeSlotID,
		&swap.Status,
		&swap.Message,
		&swap.CreatedAt,
		&swap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &swap, nil
}

func collectSwaps(rows pgx.Rows) ([]*model.SwapRequest, error) {
	defer rows.Close()

	var swaps []*model.SwapRequest
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		swaps = append(swaps, swap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests: %w", err)
	}
	return swaps, nil
}

// Create создаёт заявку в статусе PENDING
func (r *SwapRepository) Create(ctx context.Context, swap *model.SwapRequest) error {
	if swap.ID == uuid.Nil {
		swap.ID = uuid.New()
	}
	swap.Status = model.SwapStatusPending
	if err := swap.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO swap_requests (id, requester_id, requestee_id, requester_slot_id, requestee_slot_id, status, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		swap.ID,
		swap.RequesterID,
		swap.RequesteeID,
		swap.RequesterSlotID,
		swap.RequesteeSlotID,
		swap.Status,
		swap.Message,
	).Scan(&swap.CreatedAt, &swap.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает заявку по ID
func (r *SwapRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1`

	swap, err := scanSwap(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap request: %w", err)
	}

	return swap, nil
}

// LockByID берёт FOR UPDATE на заявку
func (r *SwapRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1 FOR UPDATE`

	swap, err := scanSwap(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock swap request: %w", err)
	}

	return swap, nil
}

// Transition compare-and-set статуса: применяется только если текущий статус равен expected
func (r *SwapRepository) Transition(ctx context.Context, id uuid.UUID, expected, next model.SwapStatus) (*model.SwapRequest, error) {
	if !model.CanTransition(expected, next) {
		return nil, apperr.InvalidState("cannot move swap from %s to %s", expected, next)
	}

	query := `
		UPDATE swap_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + swapColumns

	swap, err := scanSwap(r.QueryRow(ctx, query, next, id, expected))
	if err == nil {
		return swap, nil
	}
	if !base.IsNotFound(err) {
		return nil, fmt.Errorf("transition swap request: %w", err)
	}

	// Строка не обновилась: либо заявки нет, либо её уже перевели
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current == nil {
		return nil, apperr.NotFound("swap request not found")
	}
	return nil, apperr.Conflict("swap was already %s by a concurrent request", current.Status)
}

// ListPendingForRequestee входящие PENDING заявки, новые первыми
func (r *SwapRepository) ListPendingForRequestee(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE requestee_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.Query(ctx, query, userID, model.SwapStatusPending)
	if err != nil {
		return nil, fmt.Errorf("get pending swap requests: %w", err)
	}
	return collectSwaps(rows)
}

// ListByRequester исходящие заявки пользователя, новые первыми
func (r *SwapRepository) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get outgoing swap requests: %w", err)
	}
	return collectSwaps(rows)
}

// ListPendingSlotIDs слоты, на которые ссылаются PENDING заявки
func (r *SwapRepository) ListPendingSlotIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT requester_slot_id FROM swap_requests WHERE status = $1
		UNION
		SELECT requestee_slot_id FROM swap_requests WHERE status = $1
	`

	rows, err := r.Query(ctx, query, model.SwapStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending slot ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect pending slot ids: %w", err)
	}

	return ids, nil
}
