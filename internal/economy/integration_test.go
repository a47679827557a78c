package economy

// Transactional invariants need a live database. These tests are gated
// on TEST_DATABASE_URL and skip otherwise; they create throwaway
// accounts so runs do not interfere with each other.

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"lootbot/internal/db"

	"github.com/google/uuid"
)

func testService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(pool, logger, DefaultConfig())
}

func newTestAccount(t *testing.T, svc *Service, cash, savings int64) string {
	t.Helper()
	ctx := context.Background()
	id := "t-" + uuid.NewString()
	if err := svc.EnsureAccount(ctx, id, "tester"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	if _, err := svc.db.Exec(ctx, `
		UPDATE accounts SET cash = $1, savings = $2 WHERE user_id = $3
	`, cash, savings, id); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}

func balances(t *testing.T, svc *Service, id string) (cash, savings int64) {
	t.Helper()
	err := svc.db.QueryRow(context.Background(), `
		SELECT cash, savings FROM accounts WHERE user_id = $1
	`, id).Scan(&cash, &savings)
	if err != nil {
		t.Fatalf("read balances: %v", err)
	}
	return cash, savings
}

func countRows(t *testing.T, svc *Service, query string, args ...any) int {
	t.Helper()
	var n int
	if err := svc.db.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestConcurrentWithdrawsConserveTotal(t *testing.T) {
	svc := testService(t)
	id := newTestAccount(t, svc, 0, 1000)

	const workers = 8
	var wg sync.WaitGroup
	outcomes := make([]BankResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = svc.Withdraw(context.Background(), id, "tester", 100)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			// A conflict past the retry budget means that attempt
			// committed nothing; the invariant below still holds.
			if errors.Is(errs[i], ErrTxConflict) {
				continue
			}
			t.Fatalf("withdraw %d: %v", i, errs[i])
		}
		if outcomes[i].Declined == nil {
			succeeded++
		}
	}

	cash, savings := balances(t, svc, id)
	if cash+savings != 1000 {
		t.Fatalf("total not conserved: cash=%d savings=%d", cash, savings)
	}
	if cash != int64(succeeded)*100 {
		t.Fatalf("cash %d does not match %d successful withdraws", cash, succeeded)
	}
	records := countRows(t, svc, `
		SELECT COUNT(*) FROM bank_transactions WHERE user_id = $1 AND type = 'withdraw'
	`, id)
	if records != succeeded {
		t.Fatalf("got %d withdraw records for %d successes", records, succeeded)
	}
}

func TestTransferWritesBothLegsAtomically(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	from := newTestAccount(t, svc, 0, 2000)
	to := newTestAccount(t, svc, 0, 0)

	res, err := svc.Transfer(ctx, from, "tester", to, 500)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.Declined != nil {
		t.Fatalf("unexpected decline: %+v", res.Declined)
	}
	if res.TxGroupID == "" {
		t.Fatalf("missing tx group id")
	}
	legs := countRows(t, svc, `
		SELECT COUNT(*) FROM bank_transactions WHERE tx_group_id = $1
	`, res.TxGroupID)
	if legs != 2 {
		t.Fatalf("got %d legs for tx group, want 2", legs)
	}
	if _, s := balances(t, svc, from); s != 1500 {
		t.Fatalf("sender savings=%d want 1500", s)
	}
	if _, s := balances(t, svc, to); s != 500 {
		t.Fatalf("recipient savings=%d want 500", s)
	}

	// A declined transfer must leave no trace in either direction.
	res2, err := svc.Transfer(ctx, from, "tester", to, 100_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res2.Declined == nil || res2.Declined.Code != DeclineInsufficientSavings {
		t.Fatalf("expected insufficient_savings, got %+v", res2.Declined)
	}
	outs := countRows(t, svc, `
		SELECT COUNT(*) FROM bank_transactions WHERE user_id = $1 AND type = 'transfer_out'
	`, from)
	if outs != 1 {
		t.Fatalf("declined transfer wrote a record: %d transfer_out rows", outs)
	}
	if _, s := balances(t, svc, from); s != 1500 {
		t.Fatalf("declined transfer moved savings: %d", s)
	}
}

func TestCheckinSecondAttemptLeavesStateUnchanged(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	id := newTestAccount(t, svc, 0, 0)

	first, err := svc.Checkin(ctx, id, "tester")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if first.Declined != nil {
		t.Fatalf("first checkin declined: %+v", first.Declined)
	}
	cashAfterFirst, _ := balances(t, svc, id)

	second, err := svc.Checkin(ctx, id, "tester")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if second.Declined == nil || second.Declined.Code != DeclineAlreadyCheckedIn {
		t.Fatalf("expected already_checked_in, got %+v", second.Declined)
	}
	if cash, _ := balances(t, svc, id); cash != cashAfterFirst {
		t.Fatalf("second checkin changed cash: %d -> %d", cashAfterFirst, cash)
	}
	records := countRows(t, svc, `
		SELECT COUNT(*) FROM checkin_records WHERE user_id = $1
	`, id)
	if records != 1 {
		t.Fatalf("got %d checkin records, want 1", records)
	}
}

func TestInterestAccrualCreditsBaseRate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	id := newTestAccount(t, svc, 0, 1000)

	credited, err := svc.accrueInterestFor(ctx, id)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// 1000 * 0.001 floored
	if credited != 1 {
		t.Fatalf("credited=%d want 1", credited)
	}
	if _, s := balances(t, svc, id); s != 1001 {
		t.Fatalf("savings=%d want 1001", s)
	}
	records := countRows(t, svc, `
		SELECT COUNT(*) FROM bank_transactions
		WHERE user_id = $1 AND type = 'interest' AND amount = 1
	`, id)
	if records != 1 {
		t.Fatalf("got %d interest records, want 1", records)
	}
}

func TestRobberySuccessMovesCashOnly(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	robber := newTestAccount(t, svc, 500, 0)
	victim := newTestAccount(t, svc, 1000, 0)
	if _, err := svc.db.Exec(ctx, `UPDATE accounts SET level = 5 WHERE user_id = $1`, robber); err != nil {
		t.Fatalf("seed level: %v", err)
	}

	// success draw, then take = 50 + 50
	svc.rng = &scriptRand{floats: []float64{0.0}, ints: []int{50}}
	res, err := svc.Rob(ctx, robber, "tester", victim)
	if err != nil {
		t.Fatalf("rob: %v", err)
	}
	if res.Declined != nil || !res.Success || res.Amount != 100 {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	if cash, _ := balances(t, svc, robber); cash != 600 {
		t.Fatalf("robber cash=%d want 600", cash)
	}
	if cash, _ := balances(t, svc, victim); cash != 900 {
		t.Fatalf("victim cash=%d want 900", cash)
	}
	var earned int64
	if err := svc.db.QueryRow(ctx, `
		SELECT total_earned FROM accounts WHERE user_id = $1
	`, robber).Scan(&earned); err != nil {
		t.Fatalf("read total_earned: %v", err)
	}
	if earned != 0 {
		t.Fatalf("loot counted as lifetime income: total_earned=%d", earned)
	}
}

func TestRobberyVictimAtProtectionFloor(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	robber := newTestAccount(t, svc, 500, 0)
	victim := newTestAccount(t, svc, 100, 0)
	if _, err := svc.db.Exec(ctx, `UPDATE accounts SET level = 5 WHERE user_id = $1`, robber); err != nil {
		t.Fatalf("seed level: %v", err)
	}

	// A victim holding exactly the floor is robbable; the take caps at
	// zero but the attempt still lands in the log and starts the
	// cooldown.
	svc.rng = &scriptRand{floats: []float64{0.0}}
	res, err := svc.Rob(ctx, robber, "tester", victim)
	if err != nil {
		t.Fatalf("rob: %v", err)
	}
	if res.Declined != nil {
		t.Fatalf("victim at floor declined: %+v", res.Declined)
	}
	if !res.Success || res.Amount != 0 {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	if cash, _ := balances(t, svc, victim); cash != 100 {
		t.Fatalf("victim cash=%d want 100", cash)
	}
	records := countRows(t, svc, `
		SELECT COUNT(*) FROM robbery_records WHERE robber_id = $1
	`, robber)
	if records != 1 {
		t.Fatalf("got %d robbery records, want 1", records)
	}

	svc.rng = &scriptRand{floats: []float64{0.0}}
	res2, err := svc.Rob(ctx, robber, "tester", victim)
	if err != nil {
		t.Fatalf("rob: %v", err)
	}
	if res2.Declined == nil || res2.Declined.Code != DeclineOnCooldown {
		t.Fatalf("expected cooldown after attempt, got %+v", res2.Declined)
	}
}
