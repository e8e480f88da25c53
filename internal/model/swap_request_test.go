package model

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SwapStatus
		want     bool
	}{
		{SwapStatusPending, SwapStatusAccepted, true},
		{SwapStatusPending, SwapStatusRejected, true},
		{SwapStatusPending, SwapStatusPending, false},
		{SwapStatusAccepted, SwapStatusRejected, false},
		{SwapStatusAccepted, SwapStatusPending, false},
		{SwapStatusRejected, SwapStatusAccepted, false},
		{SwapStatusRejected, SwapStatusPending, false},
		{SwapStatus("CANCELLED"), SwapStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	if SwapStatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	if !SwapStatusAccepted.IsTerminal() || !SwapStatusRejected.IsTerminal() {
		t.Error("ACCEPTED and REJECTED must be terminal")
	}
	if SwapStatus("bogus").IsTerminal() {
		t.Error("unknown status must not report terminal")
	}
}

func TestSwapRequestValidate(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s1, s2 := uuid.New(), uuid.New()

	valid := SwapRequest{RequesterID: a, RequesteeID: b, RequesterSlotID: s1, RequesteeSlotID: s2, Status: SwapStatusPending}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	tests := []struct {
		name string
		req  SwapRequest
	}{
		{"self swap", SwapRequest{RequesterID: a, RequesteeID: a, RequesterSlotID: s1, RequesteeSlotID: s2, Status: SwapStatusPending}},
		{"missing requestee", SwapRequest{RequesterID: a, RequesterSlotID: s1, RequesteeSlotID: s2, Status: SwapStatusPending}},
		{"same slot", SwapRequest{RequesterID: a, RequesteeID: b, RequesterSlotID: s1, RequesteeSlotID: s1, Status: SwapStatusPending}},
		{"bad status", SwapRequest{RequesterID: a, RequesteeID: b, RequesterSlotID: s1, RequesteeSlotID: s2, Status: "NOPE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("expected Validation, got %v", err)
			}
		})
	}
}

func TestSlotFilterMatches(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	swappable := SlotStatusSwappable
	slot := &Slot{OwnerID: other, Status: SlotStatusSwappable}

	if !(SlotFilter{Status: &swappable, ExcludeID: &me}).Matches(slot) {
		t.Error("expected marketplace filter to match another user's swappable slot")
	}
	if (SlotFilter{ExcludeID: &other}).Matches(slot) {
		t.Error("expected own slot to be excluded")
	}
	busy := SlotStatusBusy
	if (SlotFilter{Status: &busy}).Matches(slot) {
		t.Error("expected status filter to reject")
	}
}
