package linkcode

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndRedeemOnce(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(NewMemoryStore(), time.Minute)
	uid := uuid.New()

	code, err := issuer.Issue(ctx, uid)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != codeLength {
		t.Fatalf("unexpected code %q", code)
	}

	got, ok, err := issuer.Redeem(ctx, " "+strings.ToLower(code)+" ")
	if err != nil || !ok {
		t.Fatalf("redeem: ok=%v err=%v", ok, err)
	}
	if got != uid {
		t.Errorf("got %s, want %s", got, uid)
	}

	if _, ok, _ := issuer.Redeem(ctx, code); ok {
		t.Error("code must be single use")
	}
}

func TestExpiredCodeIsRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	issuer := NewIssuer(store, time.Minute)

	code, err := issuer.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := issuer.Redeem(ctx, code); ok {
		t.Error("expired code must not redeem")
	}
}
