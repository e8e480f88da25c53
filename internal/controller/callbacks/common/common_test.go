package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/callbacktypes"
)

func TestParseIDFromCallback(t *testing.T) {
	id := uuid.New()

	got, err := ParseIDFromCallback(callbacktypes.WithID(callbacktypes.AcceptSwap, id), callbacktypes.AcceptSwap)
	if err != nil || got != id {
		t.Fatalf("round trip: %v %v", got, err)
	}

	bad := []string{
		callbacktypes.AcceptSwap,
		callbacktypes.AcceptSwap + "123",
		callbacktypes.RejectSwap + id.String(),
		"noop",
	}
	for _, data := range bad {
		if _, err := ParseIDFromCallback(data, callbacktypes.AcceptSwap); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%q: expected ErrInvalidFormat, got %v", data, err)
		}
	}
}

func TestErrorMessageByKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperr.InvalidState("swap already ACCEPTED"), "⚠️ Заявка уже обработана"},
		{fmt.Errorf("wrapped: %w", apperr.Forbidden("only the requestee can accept")), "❌ Решение по этой заявке принимает только получатель"},
		{apperr.Validation("both slots must be SWAPPABLE"), "❌ both slots must be SWAPPABLE"},
		{errors.New("connection reset"), "❌ Произошла ошибка"},
		{fmt.Errorf("%w: x", ErrInvalidFormat), "❌ Неверный формат данных"},
	}
	for _, tt := range tests {
		if got := ErrorMessage(tt.err); got != tt.want {
			t.Errorf("ErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestIsMessageNotModifiedError(t *testing.T) {
	if !IsMessageNotModifiedError(errors.New("bad request, Bad Request: message is not modified: specified new message content")) {
		t.Error("expected match")
	}
	if IsMessageNotModifiedError(nil) || IsMessageNotModifiedError(errors.New("chat not found")) {
		t.Error("unexpected match")
	}
}
