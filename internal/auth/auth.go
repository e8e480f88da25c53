package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

var ErrBadToken = errors.New("invalid token")

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Tokens выпускает и проверяет JWT доступа (HS256)
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue выпускает токен для пользователя
func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	now := t.now()
	c := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

// Parse проверяет подпись и срок действия
func (t *Tokens) Parse(raw string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}

// Resolve реализует service.IdentityProvider: "Bearer <jwt>" или голый токен -> id пользователя
func (t *Tokens) Resolve(_ context.Context, credential string) (uuid.UUID, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if raw == "" {
		return uuid.Nil, apperr.Unauthenticated("no token")
	}

	claims, err := t.Parse(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, apperr.Unauthenticated("token expired")
		}
		return uuid.Nil, apperr.Unauthenticated("bad token")
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, apperr.Unauthenticated("bad token")
	}
	return id, nil
}
