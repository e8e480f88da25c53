package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/repository/base"
)

const slotColumns = `id, owner_id, title, start_time, end_time, status, created_at, updated_at`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	query := `
		INSERT INTO slots (id, owner_id, title, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// LockByIDs берёт FOR UPDATE на слоты в порядке возрастания id.
// Вызывается только внутри транзакции.
func (r *SlotRepository) LockByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock slots: %w", err)
	}
	slots, err := collectSlots(rows)
	if err != nil {
		return nil, err
	}

	locked := make(map[uuid.UUID]*model.Slot, len(slots))
	for _, slot := range slots {
		locked[slot.ID] = slot
	}
	return locked, nil
}

// List получает слоты по фильтру, новые по времени начала первыми
func (r *SlotRepository) List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.ExcludeID != nil {
		args = append(args, *filter.ExcludeID)
		conds = append(conds, fmt.Sprintf("owner_id <> $%d", len(args)))
	}

	query := `SELECT ` + slotColumns + ` FROM slots`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return collectSlots(rows)
}

// Update обновляет название, время и статус слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET title = $1, start_time = $2, end_time = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, slot.Title, slot.StartTime, slot.EndTime, slot.Status, slot.ID).Scan(&slot.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return apperr.NotFound("slot not found")
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// Delete удаляет слот
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return apperr.NotFound("slot not found")
	}

	return nil
}

// SetOwner меняет владельца слота
func (r *SlotRepository) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `
		UPDATE slots
		SET owner_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("set slot owner: %w", err)
	}

	if affected == 0 {
		return apperr.NotFound("slot not found")
	}

	return nil
}

// SetStatus обновляет статус слота
func (r *SlotRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error {
	query := `
		UPDATE slots
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("set slot status: %w", err)
	}

	if affected == 0 {
		return apperr.NotFound("slot not found")
	}

	return nil
}

// ListReservedIDs слоты в статусе SWAP_PENDING
func (r *SlotRepository) ListReservedIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.Query(ctx, `SELECT id FROM slots WHERE status = $1 ORDER BY id`, model.SlotStatusSwapPending)
	if err != nil {
		return nil, fmt.Errorf("list reserved slots: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect reserved slots: %w", err)
	}

	return ids, nil
}
