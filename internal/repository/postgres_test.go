package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/app"
	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/repository"
	"github.com/Freeeeeet/slot_swapper/internal/repository/base"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

// Интеграционные тесты на живом Postgres: TEST_DB_DSN=postgres://... go test ./internal/repository/
type pgEnv struct {
	pool  *pgxpool.Pool
	tx    *base.TxManager
	users *repository.UserRepository
	slots *repository.SlotRepository
	swaps *repository.SwapRepository
	svc   *service.SwapService
}

func newPgEnv(t *testing.T) *pgEnv {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, zap.NewNop())
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE swap_requests, slots, users CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	env := &pgEnv{
		pool:  pool,
		tx:    base.NewTxManager(pool, 300*time.Millisecond),
		users: repository.NewUserRepository(pool),
		slots: repository.NewSlotRepository(pool),
		swaps: repository.NewSwapRepository(pool),
	}
	env.svc = service.NewSwapService(env.tx, env.users, env.slots, env.swaps, zap.NewNop())
	return env
}

func (e *pgEnv) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u := &model.User{Name: name, Email: name + "-" + uuid.NewString()[:8] + "@test.com", PasswordHash: "x"}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (e *pgEnv) slot(t *testing.T, owner uuid.UUID, status model.SlotStatus) uuid.UUID {
	t.Helper()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s := &model.Slot{OwnerID: owner, Title: "slot", StartTime: start, EndTime: start.Add(time.Hour), Status: status}
	if err := e.slots.Create(context.Background(), s); err != nil {
		t.Fatalf("create slot: %v", err)
	}
	return s.ID
}

func TestPostgresAcceptExchangesOwners(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	s1, s2 := e.slot(t, a, model.SlotStatusSwappable), e.slot(t, b, model.SlotStatusSwappable)

	proposed, err := e.svc.Propose(ctx, a, service.ProposeInput{RequesteeID: b, MySlotID: s1, RequesteeSlotID: s2})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	details, err := e.svc.Accept(ctx, b, proposed.Swap.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if details.Swap.Status != model.SwapStatusAccepted {
		t.Errorf("status = %s", details.Swap.Status)
	}

	got1, _ := e.slots.GetByID(ctx, s1)
	got2, _ := e.slots.GetByID(ctx, s2)
	if got1.OwnerID != b || got2.OwnerID != a {
		t.Errorf("owners not exchanged: %s %s", got1.OwnerID, got2.OwnerID)
	}
	if got1.Status != model.SlotStatusBusy || got2.Status != model.SlotStatusBusy {
		t.Errorf("statuses: %s %s", got1.Status, got2.Status)
	}
}

func TestPostgresPendingSlotReservation(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	s1, s2, s3 := e.slot(t, a, model.SlotStatusSwappable), e.slot(t, b, model.SlotStatusSwappable), e.slot(t, b, model.SlotStatusSwappable)

	first := &model.SwapRequest{RequesterID: a, RequesteeID: b, RequesterSlotID: s1, RequesteeSlotID: s2}
	if err := e.swaps.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Обходим движок: второй PENDING на тот же слот запрещён swap_slot_reservations
	second := &model.SwapRequest{RequesterID: a, RequesteeID: b, RequesterSlotID: s1, RequesteeSlotID: s3}
	if err := e.swaps.Create(ctx, second); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("expected Conflict from reservation, got %v", err)
	}

	// s2 запрошен в первой заявке и не может быть отдан во второй
	s4 := e.slot(t, a, model.SlotStatusSwappable)
	cross := &model.SwapRequest{RequesterID: b, RequesteeID: a, RequesterSlotID: s2, RequesteeSlotID: s4}
	if err := e.swaps.Create(ctx, cross); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("cross side: expected Conflict from reservation, got %v", err)
	}

	if _, err := e.swaps.Transition(ctx, first.ID, model.SwapStatusPending, model.SwapStatusRejected); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := e.swaps.Transition(ctx, first.ID, model.SwapStatusPending, model.SwapStatusAccepted); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("stale CAS: expected Conflict, got %v", err)
	}
	if err := e.swaps.Create(ctx, second); err != nil {
		t.Errorf("slot is free again after reject: %v", err)
	}
}

func TestPostgresMissingSlotIsNotFound(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()
	missing := uuid.New()

	checks := map[string]error{
		"update":     e.slots.Update(ctx, &model.Slot{ID: missing, Title: "x", Status: model.SlotStatusBusy}),
		"delete":     e.slots.Delete(ctx, missing),
		"set owner":  e.slots.SetOwner(ctx, missing, uuid.New()),
		"set status": e.slots.SetStatus(ctx, missing, model.SlotStatusBusy),
	}
	for name, err := range checks {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("%s: expected NotFound, got %v", name, err)
		}
	}
}

func TestPostgresLockTimeoutIsBusy(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()
	a := e.user(t, "alice")
	s1 := e.slot(t, a, model.SlotStatusSwappable)

	locked := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = e.tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := e.slots.LockByIDs(ctx, s1); err != nil {
				return err
			}
			close(locked)
			<-release
			return errors.New("rollback")
		})
	}()

	<-locked
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := e.slots.LockByIDs(ctx, s1)
		return err
	})
	close(release)
	wg.Wait()

	if !apperr.IsKind(err, apperr.KindBusy) {
		t.Errorf("expected Busy, got %v", err)
	}
}

func TestPostgresConcurrentDecisionsApplyOnce(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	s1, s2 := e.slot(t, a, model.SlotStatusSwappable), e.slot(t, b, model.SlotStatusSwappable)

	proposed, err := e.svc.Propose(ctx, a, service.ProposeInput{RequesteeID: b, MySlotID: s1, RequesteeSlotID: s2})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, decide := range []func(context.Context, uuid.UUID, uuid.UUID) (*model.SwapDetails, error){e.svc.Accept, e.svc.Reject} {
		wg.Add(1)
		go func(i int, decide func(context.Context, uuid.UUID, uuid.UUID) (*model.SwapDetails, error)) {
			defer wg.Done()
			_, errs[i] = decide(ctx, b, proposed.Swap.ID)
		}(i, decide)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if k := apperr.KindOf(err); k != apperr.KindInvalidState && k != apperr.KindConflict && k != apperr.KindBusy {
			t.Errorf("unexpected error kind %s: %v", k, err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one decision to win, got %d (%v)", succeeded, errs)
	}

	swap, _ := e.swaps.GetByID(ctx, proposed.Swap.ID)
	got1, _ := e.slots.GetByID(ctx, s1)
	switch swap.Status {
	case model.SwapStatusAccepted:
		if got1.OwnerID != b {
			t.Errorf("accepted but slot not moved")
		}
	case model.SwapStatusRejected:
		if got1.OwnerID != a || got1.Status != model.SlotStatusSwappable {
			t.Errorf("rejected but slot changed: %+v", got1)
		}
	default:
		t.Errorf("swap still %s", swap.Status)
	}
}
