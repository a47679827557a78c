package economy

import (
	"context"
	"errors"
	"log/slog"
	"math"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rand is the single source of randomness for payouts and robbery
// draws. Tests inject scripted sequences to pin down exact arithmetic.
type Rand interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Service is the economy transaction engine. All state lives in the
// ledger store; the service itself holds no cross-call mutable state
// beyond its random source.
type Service struct {
	db  *pgxpool.Pool
	log *slog.Logger
	cfg Config
	rng Rand
	loc *time.Location
	now func() time.Time
}

func New(db *pgxpool.Pool, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:  db,
		log: logger,
		cfg: cfg,
		rng: &lockedRand{r: mathrand.New(mathrand.NewSource(time.Now().UnixNano()))},
		loc: loc,
		now: time.Now,
	}
}

// EnsureAccount creates the account on first contact and keeps the
// display name current. Idempotent; every entry point calls it first.
func (s *Service) EnsureAccount(ctx context.Context, userID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = userID
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (user_id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, updated_at = now()
		WHERE accounts.display_name IS DISTINCT FROM EXCLUDED.display_name
	`, userID, displayName)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

const maxTxAttempts = 8

// withSerializableTx runs fn inside a serializable transaction,
// retrying with backoff on serialization failures. fn must be safe to
// re-run from scratch; declines populate the result and return nil.
func (s *Service) withSerializableTx(ctx context.Context, fn func(pgx.Tx) error) error {
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return storeErr(err)
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxTxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	// Anything that is not a database-reported error is a connectivity
	// fault and retryable from the caller's side.
	if !errors.Is(err, pgx.ErrNoRows) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// dayWindow returns the [start, end) bounds of the calendar day that
// contains t in the configured location. Daily quotas and limits scan
// the event log against these bounds inside the mutating transaction.
func (s *Service) dayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return start, start.Add(24 * time.Hour)
}

// today returns the calendar date in the configured location,
// normalized to midnight UTC for DATE-column comparisons.
func (s *Service) today() time.Time {
	local := s.now().In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// lockAccount reads one account row FOR UPDATE. Callers needing two
// rows must go through lockAccountPair to keep a canonical lock order.
func lockAccount(ctx context.Context, tx pgx.Tx, userID string) (accountRow, error) {
	var a accountRow
	a.UserID = userID
	err := tx.QueryRow(ctx, `
		SELECT display_name, cash, savings, total_earned, level, experience,
		       checkin_streak, total_checkins, last_checkin_date, created_at
		FROM accounts
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&a.DisplayName, &a.Cash, &a.Savings, &a.TotalEarned, &a.Level,
		&a.Experience, &a.CheckinStreak, &a.TotalCheckins, &a.LastCheckinDate, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	return a, nil
}

// lockAccountPair locks both rows in ascending user-id order so two
// concurrent cross-account operations on the same pair cannot
// deadlock, then returns them keyed back to the requested order.
func lockAccountPair(ctx context.Context, tx pgx.Tx, firstID, secondID string) (accountRow, accountRow, error) {
	ids := []string{firstID, secondID}
	if ids[1] < ids[0] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	rows := make(map[string]accountRow, 2)
	for _, id := range ids {
		row, err := lockAccount(ctx, tx, id)
		if err != nil {
			return accountRow{}, accountRow{}, err
		}
		rows[id] = row
	}
	return rows[firstID], rows[secondID], nil
}

type accountRow struct {
	UserID          string
	DisplayName     string
	Cash            int64
	Savings         int64
	TotalEarned     int64
	Level           int
	Experience      int64
	CheckinStreak   int
	TotalCheckins   int
	LastCheckinDate *time.Time
	CreatedAt       time.Time
}

func decline(code DeclineCode, message string) *Decline {
	return &Decline{Code: code, Message: message}
}

// remainingMinutes rounds a cooldown remainder up to whole minutes so
// "0 minutes left" is never reported while still on cooldown.
func remainingMinutes(until time.Time, now time.Time) int64 {
	d := until.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Minutes()))
}
