package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/repository/memory"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

type fixture struct {
	store *memory.Store
	svc   *service.SwapService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(200 * time.Millisecond)
	svc := service.NewSwapService(store, store.Users(), store.Slots(), store.Swaps(), zap.NewNop())
	return &fixture{store: store, svc: svc}
}

func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u := &model.User{Name: name, Email: fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]), PasswordHash: "x"}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (f *fixture) slot(t *testing.T, owner uuid.UUID, status model.SlotStatus) uuid.UUID {
	t.Helper()
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	s := &model.Slot{OwnerID: owner, Title: "slot", StartTime: start, EndTime: start.Add(time.Hour), Status: status}
	if err := f.store.Slots().Create(context.Background(), s); err != nil {
		t.Fatalf("create slot: %v", err)
	}
	return s.ID
}

func (f *fixture) get(t *testing.T, id uuid.UUID) *model.Slot {
	t.Helper()
	s, err := f.store.Slots().GetByID(context.Background(), id)
	if err != nil || s == nil {
		t.Fatalf("get slot %s: %v", id, err)
	}
	return s
}

func (f *fixture) propose(t *testing.T, from, to, mine, theirs uuid.UUID) *model.SwapRequest {
	t.Helper()
	d, err := f.svc.Propose(context.Background(), from, service.ProposeInput{RequesteeID: to, MySlotID: mine, RequesteeSlotID: theirs})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	return d.Swap
}

func TestProposeSelfSwapAlwaysValidation(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "alice")

	statuses := []model.SlotStatus{model.SlotStatusSwappable, model.SlotStatusBusy, model.SlotStatusSwapPending}
	for _, s1 := range statuses {
		for _, s2 := range statuses {
			mine, other := f.slot(t, a, s1), f.slot(t, a, s2)
			_, err := f.svc.Propose(context.Background(), a, service.ProposeInput{RequesteeID: a, MySlotID: mine, RequesteeSlotID: other})
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("%s/%s: expected Validation, got %v", s1, s2, err)
			}
		}
	}
}

func TestProposePreconditions(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	s1 := f.slot(t, a, model.SlotStatusSwappable)
	s2 := f.slot(t, b, model.SlotStatusSwappable)
	s3 := f.slot(t, b, model.SlotStatusBusy)
	s4 := f.slot(t, c, model.SlotStatusSwappable)

	tests := []struct {
		name string
		in   service.ProposeInput
		want apperr.Kind
	}{
		{"unknown requestee", service.ProposeInput{RequesteeID: uuid.New(), MySlotID: s1, RequesteeSlotID: s2}, apperr.KindNotFound},
		{"my slot missing", service.ProposeInput{RequesteeID: b, MySlotID: uuid.New(), RequesteeSlotID: s2}, apperr.KindNotFound},
		{"my slot not mine", service.ProposeInput{RequesteeID: b, MySlotID: s4, RequesteeSlotID: s2}, apperr.KindNotFound},
		{"their slot owned by someone else", service.ProposeInput{RequesteeID: b, MySlotID: s1, RequesteeSlotID: s4}, apperr.KindNotFound},
		{"their slot busy", service.ProposeInput{RequesteeID: b, MySlotID: s1, RequesteeSlotID: s3}, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Propose(context.Background(), a, tt.in)
			if !apperr.IsKind(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}

	if f.get(t, s1).Status != model.SlotStatusSwappable {
		t.Error("failed proposals must not reserve slots")
	}
}

func TestProposeReservesWithoutChangingOwners(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)

	d, err := f.svc.Propose(context.Background(), a, service.ProposeInput{RequesteeID: b, MySlotID: s1, RequesteeSlotID: s2, Message: "  trade?  "})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if d.Swap.Status != model.SwapStatusPending {
		t.Errorf("status = %s, want PENDING", d.Swap.Status)
	}
	if d.Swap.Message == nil || *d.Swap.Message != "trade?" {
		t.Errorf("message = %v", d.Swap.Message)
	}

	for id, owner := range map[uuid.UUID]uuid.UUID{s1: a, s2: b} {
		slot := f.get(t, id)
		if slot.OwnerID != owner {
			t.Errorf("slot %s owner changed on propose", id)
		}
		if slot.Status != model.SlotStatusSwapPending {
			t.Errorf("slot %s status = %s, want SWAP_PENDING", id, slot.Status)
		}
	}
}

func TestSecondProposalOnReservedSlotIsValidation(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)
	s3 := f.slot(t, c, model.SlotStatusSwappable)

	f.propose(t, a, b, s1, s2)

	_, err := f.svc.Propose(context.Background(), c, service.ProposeInput{RequesteeID: b, MySlotID: s3, RequesteeSlotID: s2})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if f.get(t, s3).Status != model.SlotStatusSwappable {
		t.Error("rejected proposal must not leave its own slot reserved")
	}
}

func TestAcceptScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")
	s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)
	before := f.get(t, s1)

	swap := f.propose(t, a, b, s1, s2)

	d, err := f.svc.Accept(ctx, b, swap.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if d.Swap.Status != model.SwapStatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", d.Swap.Status)
	}
	if d.RequesterSlot.OwnerID != b || d.RequesteeSlot.OwnerID != a {
		t.Error("returned slots must reflect the new ownership")
	}

	after1, after2 := f.get(t, s1), f.get(t, s2)
	if after1.OwnerID != b || after2.OwnerID != a {
		t.Fatalf("owners not exchanged: s1=%s s2=%s", after1.OwnerID, after2.OwnerID)
	}
	if after1.Status != model.SlotStatusBusy || after2.Status != model.SlotStatusBusy {
		t.Error("accepted slots must be finalized as BUSY")
	}
	if after1.Title != before.Title || !after1.StartTime.Equal(before.StartTime) || !after1.EndTime.Equal(before.EndTime) {
		t.Error("accept must change only the owner")
	}

	if _, err := f.svc.Accept(ctx, b, swap.ID); !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Errorf("second accept: expected InvalidState, got %v", err)
	}
	if _, err := f.svc.Reject(ctx, b, swap.ID); !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Errorf("reject after accept: expected InvalidState, got %v", err)
	}
	if f.get(t, s1).OwnerID != b {
		t.Error("terminal swap must not mutate slots")
	}
}

func TestBusySlotScenario(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	s1, s3 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusBusy)

	_, err := f.svc.Propose(context.Background(), a, service.ProposeInput{RequesteeID: b, MySlotID: s1, RequesteeSlotID: s3})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestDecisionByNonRequesteeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	swap := f.propose(t, a, b, f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable))

	for _, actor := range []uuid.UUID{a, c} {
		if _, err := f.svc.Accept(ctx, actor, swap.ID); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("accept by %s: expected Forbidden, got %v", actor, err)
		}
		if _, err := f.svc.Reject(ctx, actor, swap.ID); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("reject by %s: expected Forbidden, got %v", actor, err)
		}
	}

	if _, err := f.svc.Accept(ctx, b, uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown swap: expected NotFound, got %v", err)
	}
}

func TestRejectReleasesWithoutOwnershipChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")
	s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)
	swap := f.propose(t, a, b, s1, s2)

	d, err := f.svc.Reject(ctx, b, swap.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if d.Swap.Status != model.SwapStatusRejected {
		t.Errorf("status = %s, want REJECTED", d.Swap.Status)
	}
	if f.get(t, s1).OwnerID != a || f.get(t, s2).OwnerID != b {
		t.Error("reject must not change owners")
	}
	if f.get(t, s1).Status != model.SlotStatusSwappable || f.get(t, s2).Status != model.SlotStatusSwappable {
		t.Error("reject must release reservations")
	}

	// released slots can be proposed again
	f.propose(t, a, b, s1, s2)
}

func TestAcceptConflictsWhenOwnershipDrifted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)
	swap := f.propose(t, a, b, s1, s2)

	if err := f.store.Slots().SetOwner(ctx, s2, c); err != nil {
		t.Fatalf("set owner: %v", err)
	}

	if _, err := f.svc.Accept(ctx, b, swap.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if f.get(t, s1).OwnerID != a || f.get(t, s2).OwnerID != c {
		t.Error("failed accept must not change owners")
	}
	got, _ := f.store.Swaps().GetByID(ctx, swap.ID)
	if got.Status != model.SwapStatusPending {
		t.Errorf("swap status = %s, want PENDING after rollback", got.Status)
	}

	// reject still works and leaves the drifted slot alone
	if _, err := f.svc.Reject(ctx, b, swap.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if f.get(t, s1).Status != model.SlotStatusSwappable {
		t.Error("requester slot must be released")
	}
	if f.get(t, s2).Status != model.SlotStatusSwapPending {
		t.Error("slot that changed hands must keep its status")
	}
}

func TestConcurrentDecisionsExactlyOneWins(t *testing.T) {
	kinds := []struct {
		name   string
		second func(*service.SwapService, uuid.UUID, uuid.UUID) (*model.SwapDetails, error)
	}{
		{"accept/accept", func(s *service.SwapService, actor, id uuid.UUID) (*model.SwapDetails, error) {
			return s.Accept(context.Background(), actor, id)
		}},
		{"accept/reject", func(s *service.SwapService, actor, id uuid.UUID) (*model.SwapDetails, error) {
			return s.Reject(context.Background(), actor, id)
		}},
	}

	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			for i := 0; i < 25; i++ {
				f := newFixture(t)
				a, b := f.user(t, "alice"), f.user(t, "bob")
				s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)
				swap := f.propose(t, a, b, s1, s2)

				var (
					wg      sync.WaitGroup
					results [2]*model.SwapDetails
					errs    [2]error
				)
				wg.Add(2)
				go func() {
					defer wg.Done()
					results[0], errs[0] = f.svc.Accept(context.Background(), b, swap.ID)
				}()
				go func() {
					defer wg.Done()
					results[1], errs[1] = k.second(f.svc, b, swap.ID)
				}()
				wg.Wait()

				var winner *model.SwapDetails
				for j := range errs {
					if errs[j] == nil {
						if winner != nil {
							t.Fatal("both decisions succeeded")
						}
						winner = results[j]
						continue
					}
					kind := apperr.KindOf(errs[j])
					if kind != apperr.KindConflict && kind != apperr.KindInvalidState {
						t.Fatalf("loser failed with %s: %v", kind, errs[j])
					}
				}
				if winner == nil {
					t.Fatal("no decision succeeded")
				}

				o1, o2 := f.get(t, s1).OwnerID, f.get(t, s2).OwnerID
				switch winner.Swap.Status {
				case model.SwapStatusAccepted:
					if o1 != b || o2 != a {
						t.Fatalf("accepted but owners are s1=%s s2=%s", o1, o2)
					}
				case model.SwapStatusRejected:
					if o1 != a || o2 != b {
						t.Fatalf("rejected but owners are s1=%s s2=%s", o1, o2)
					}
				default:
					t.Fatalf("unexpected winner status %s", winner.Swap.Status)
				}
			}
		})
	}
}

func TestListPendingExactAndNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")

	first := f.propose(t, a, b, f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable))
	accepted := f.propose(t, c, b, f.slot(t, c, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable))
	rejected := f.propose(t, a, b, f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable))
	last := f.propose(t, c, b, f.slot(t, c, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable))
	f.propose(t, b, a, f.slot(t, b, model.SlotStatusSwappable), f.slot(t, a, model.SlotStatusSwappable))

	if _, err := f.svc.Accept(ctx, b, accepted.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Reject(ctx, b, rejected.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	pending, err := f.svc.ListPending(ctx, b)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != last.ID || pending[1].ID != first.ID {
		t.Fatalf("unexpected pending list: %+v", pending)
	}

	outgoing, err := f.svc.ListOutgoing(ctx, a)
	if err != nil {
		t.Fatalf("list outgoing: %v", err)
	}
	if len(outgoing) != 2 || outgoing[0].ID != rejected.ID {
		t.Errorf("unexpected outgoing list: %+v", outgoing)
	}
}

func TestLockContentionFailsBusy(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	swap := f.propose(t, a, b, f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.store.WithinTx(context.Background(), func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	_, err := f.svc.Accept(context.Background(), b, swap.ID)
	close(release)
	<-done

	if !apperr.IsKind(err, apperr.KindBusy) {
		t.Fatalf("expected Busy, got %v", err)
	}
	got, _ := f.store.Swaps().GetByID(context.Background(), swap.ID)
	if got.Status != model.SwapStatusPending {
		t.Error("timed out accept must leave the swap PENDING")
	}
}

func TestReleaseOrphanedReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")
	s1, s2 := f.slot(t, a, model.SlotStatusSwappable), f.slot(t, b, model.SlotStatusSwappable)
	f.propose(t, a, b, s1, s2)
	orphan := f.slot(t, a, model.SlotStatusSwapPending)

	released, err := f.svc.ReleaseOrphanedReservations(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
	if f.get(t, orphan).Status != model.SlotStatusSwappable {
		t.Error("orphan must be released")
	}
	if f.get(t, s1).Status != model.SlotStatusSwapPending {
		t.Error("slot of a pending swap must stay reserved")
	}
}
