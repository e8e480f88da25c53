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

const userColumns = `id, name, email, password_hash, telegram_id, created_at, updated_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.TelegramID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user, err := scanUser(r.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, err
	}
	return user, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, telegram_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.TelegramID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if apperr.IsKind(base.MapError(err), apperr.KindConflict) {
			return apperr.Conflict("email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := r.getOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail получает пользователя по email (ожидается в нижнем регистре)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.getOne(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := r.getOne(ctx, "telegram_id = $1", telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return user, nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// SetTelegramID привязывает Telegram-аккаунт. Один Telegram ID - один пользователь.
func (r *UserRepository) SetTelegramID(ctx context.Context, id uuid.UUID, telegramID int64) error {
	query := `
		UPDATE users
		SET telegram_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, telegramID, id)
	if err != nil {
		if apperr.IsKind(base.MapError(err), apperr.KindConflict) {
			return apperr.Conflict("telegram account already linked to another user")
		}
		return fmt.Errorf("set telegram id: %w", err)
	}

	if affected == 0 {
		return apperr.NotFound("user not found")
	}

	return nil
}
