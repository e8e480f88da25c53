package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/auth"
	"github.com/Freeeeeet/slot_swapper/internal/model"
)

// TokenIssuer выпускает токены доступа
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// LinkCodes одноразовые коды привязки Telegram
type LinkCodes interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Redeem(ctx context.Context, code string) (uuid.UUID, bool, error)
}

// Session пользователь и выданный ему токен
type Session struct {
	User  *model.User `json:"user"`
	Token string      `json:"access_token"`
}

type UserService struct {
	users  UserStore
	tokens TokenIssuer
	codes  LinkCodes
	logger *zap.Logger
}

func NewUserService(users UserStore, tokens TokenIssuer, codes LinkCodes, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		codes:  codes,
		logger: logger,
	}
}

// Register регистрирует пользователя по email и паролю
func (s *UserService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if len([]rune(name)) < 2 {
		return nil, apperr.Validation("name must be at least 2 characters long")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, apperr.Validation("valid email is required")
	}
	if len(password) < 6 {
		return nil, apperr.Validation("password must be at least 6 characters long")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email),
	)

	return s.session(user)
}

// Login проверяет пароль и выдаёт токен
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}

	return s.session(user)
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID; nil если аккаунт не привязан
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

// Names имена пользователей по id (для отображения в боте)
func (s *UserService) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// IssueTelegramCode выдаёт код для команды /link в боте
func (s *UserService) IssueTelegramCode(ctx context.Context, userID uuid.UUID) (string, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return "", err
	}

	code, err := s.codes.Issue(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("issue link code: %w", err)
	}

	s.logger.Info("Telegram link code issued", zap.String("user_id", userID.String()))
	return code, nil
}

// LinkTelegram погашает код и привязывает Telegram-аккаунт к пользователю
func (s *UserService) LinkTelegram(ctx context.Context, code string, telegramID int64) (*model.User, error) {
	userID, ok, err := s.codes.Redeem(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("redeem link code: %w", err)
	}
	if !ok {
		return nil, apperr.Validation("link code is invalid or expired")
	}

	if err := s.users.SetTelegramID(ctx, userID, telegramID); err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Telegram account linked",
		zap.String("user_id", userID.String()),
		zap.Int64("telegram_id", telegramID),
	)

	return user, nil
}

func (s *UserService) session(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
