package usecase

import (
	"context"
	"testing"
	"time"
)

func TestGovernor_AdmitUntilWindowFull(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ledger := newMemoryLedger(clock)
	g := NewGovernor(ledger, 60*time.Second, nopLogger{})
	ctx := context.Background()

	if !g.Admit(ctx, 2) {
		t.Fatal("empty ledger should admit")
	}

	g.Record(ctx, now)
	if !g.Admit(ctx, 2) {
		t.Fatal("one entry under limit 2 should admit")
	}

	g.Record(ctx, now)
	if g.Admit(ctx, 2) {
		t.Fatal("two entries at limit 2 should deny")
	}
}

func TestGovernor_WindowExpiryReopensBudget(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ledger := newMemoryLedger(clock)
	g := NewGovernor(ledger, 60*time.Second, nopLogger{})
	ctx := context.Background()

	g.Record(ctx, now)
	g.Record(ctx, now)
	if g.Admit(ctx, 2) {
		t.Fatal("full window should deny")
	}

	now = now.Add(61 * time.Second)
	if !g.Admit(ctx, 2) {
		t.Fatal("expired window should admit again")
	}
}

func TestGovernor_TransferHeadroomSharesLedger(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	ledger := newMemoryLedger(func() time.Time { return now })
	g := NewGovernor(ledger, 60*time.Second, nopLogger{})
	ctx := context.Background()

	// three direct calls already in the window: direct budget is gone
	// but the transfer headroom of 4 still has room
	for i := 0; i < 3; i++ {
		g.Record(ctx, now)
	}
	if g.Admit(ctx, 2) {
		t.Error("direct limit 2 should deny at three entries")
	}
	if !g.Admit(ctx, 4) {
		t.Error("transfer limit 4 should still admit at three entries")
	}
}

func TestGovernor_LedgerFailureDeniesAdmission(t *testing.T) {
	ledger := newMemoryLedger(time.Now)
	ledger.failing = true
	g := NewGovernor(ledger, 60*time.Second, nopLogger{})

	if g.Admit(context.Background(), 2) {
		t.Fatal("ledger failure should deny admission")
	}
}
