package apperr

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для транспорта (HTTP, Telegram)
type Kind string

const (
	KindInternal        Kind = "internal"
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInvalidState    Kind = "invalid_state"
	KindConflict        Kind = "conflict"
	KindBusy            Kind = "busy"
	KindUnauthenticated Kind = "unauthenticated"
)

// Error ошибка со стабильным видом и человекочитаемым сообщением
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет сравнивать ошибки по виду: errors.Is(err, apperr.ErrConflict)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Маркеры для errors.Is
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrBusy            = &Error{Kind: KindBusy}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap сохраняет исходную ошибку как причину
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(format string, args ...any) *Error   { return New(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error     { return New(KindNotFound, format, args...) }
func Forbidden(format string, args ...any) *Error    { return New(KindForbidden, format, args...) }
func InvalidState(format string, args ...any) *Error { return New(KindInvalidState, format, args...) }
func Conflict(format string, args ...any) *Error     { return New(KindConflict, format, args...) }
func Busy(format string, args ...any) *Error         { return New(KindBusy, format, args...) }
func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

// KindOf возвращает вид ошибки; всё, что не *Error, считается внутренней ошибкой
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind проверяет вид ошибки по цепочке обёрток
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage сообщение для клиента: внутренние детали наружу не отдаются
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		if e.Message != "" {
			return e.Message
		}
		return string(e.Kind)
	}
	return "internal server error"
}
