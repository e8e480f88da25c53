// Package linkcode одноразовые коды привязки Telegram-аккаунта к пользователю
package linkcode

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const codeLength = 8

// Store хранит код -> пользователь с ограниченным сроком жизни
type Store interface {
	// Put сохраняет код, если он ещё не занят
	Put(ctx context.Context, code string, userID uuid.UUID, ttl time.Duration) (bool, error)
	// Take возвращает пользователя и удаляет код; ok=false если кода нет или он истёк
	Take(ctx context.Context, code string) (userID uuid.UUID, ok bool, err error)
}

// Issuer выдаёт коды привязки
type Issuer struct {
	store Store
	ttl   time.Duration
}

func NewIssuer(store Store, ttl time.Duration) *Issuer {
	return &Issuer{store: store, ttl: ttl}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue генерирует уникальный код для пользователя
func (i *Issuer) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	const maxAttempts = 10

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}

		ok, err := i.store.Put(ctx, code, userID, i.ttl)
		if err != nil {
			return "", fmt.Errorf("store link code: %w", err)
		}
		if ok {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}

// Redeem погашает код; регистр и пробелы не важны
func (i *Issuer) Redeem(ctx context.Context, code string) (uuid.UUID, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return uuid.Nil, false, nil
	}
	return i.store.Take(ctx, code)
}

func generateCode() (string, error) {
	// 6 байт дают 10 символов base32, берём первые 8
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}

	code := base32.StdEncoding.EncodeToString(bytes)
	code = strings.TrimRight(code, "=")
	return code[:codeLength], nil
}
