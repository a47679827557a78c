package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// checkinReward computes the reward for reaching the given streak:
// fixed base, a uniform random bonus, and the highest streak tier
// reached.
func checkinReward(streak int, rng Rand) (base, random, tier int64) {
	base = checkinBaseReward
	random = int64(rng.IntN(int(checkinRandomBonus) + 1))
	tier = streakBonus(streak)
	return base, random, tier
}

// nextStreak applies the streak law: a one-day gap extends the streak,
// anything else restarts it at 1. A zero-day gap is unreachable behind
// the same-day existence check and is reported as an invariant error.
func nextStreak(lastDate *time.Time, today time.Time, current int) (int, error) {
	if lastDate == nil {
		return 1, nil
	}
	gap := int(today.Sub(dateOnly(*lastDate)).Hours() / 24)
	switch {
	case gap == 1:
		return current + 1, nil
	case gap == 0:
		return 0, fmt.Errorf("%w: same-day checkin past existence check", ErrInvariant)
	default:
		return 1, nil
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Checkin performs the daily checkin: at most once per calendar day,
// streak-aware reward credited to cash, one checkin record appended in
// the same transaction.
func (s *Service) Checkin(ctx context.Context, userID, displayName string) (CheckinResult, error) {
	var res CheckinResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}
	today := s.today()

	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		res = CheckinResult{}

		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM checkin_records
				WHERE user_id = $1 AND checkin_date = $2
			)
		`, userID, today).Scan(&exists); err != nil {
			return err
		}
		if exists {
			res.Declined = decline(DeclineAlreadyCheckedIn, "already checked in today, come back tomorrow")
			return nil
		}

		acct, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}

		streak, err := nextStreak(acct.LastCheckinDate, today, acct.CheckinStreak)
		if err != nil {
			s.log.Error("checkin invariant violation", "user_id", userID, "err", err)
			return err
		}

		base, random, tier := checkinReward(streak, s.rng)
		total := base + random + tier

		if _, err := tx.Exec(ctx, `
			UPDATE accounts
			SET cash = cash + $1,
			    checkin_streak = $2,
			    total_checkins = total_checkins + 1,
			    last_checkin_date = $3,
			    updated_at = now()
			WHERE user_id = $4
		`, total, streak, today, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO checkin_records (user_id, checkin_date, reward_amount, consecutive_days)
			VALUES ($1, $2, $3, $4)
		`, userID, today, total, streak); err != nil {
			return err
		}

		res.BaseReward = base
		res.RandomBonus = random
		res.StreakBonus = tier
		res.TotalReward = total
		res.Streak = streak
		res.TotalCheckins = acct.TotalCheckins + 1
		res.Cash = acct.Cash + total
		res.Savings = acct.Savings
		return nil
	})
	return res, err
}

// CheckinInfo reports checkin state and what the next checkin would be
// worth. Read-only beyond the account upsert.
func (s *Service) CheckinInfo(ctx context.Context, userID, displayName string) (CheckinInfoResult, error) {
	var res CheckinInfoResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}
	today := s.today()

	var acct accountRow
	err := s.db.QueryRow(ctx, `
		SELECT checkin_streak, total_checkins, last_checkin_date
		FROM accounts
		WHERE user_id = $1
	`, userID).Scan(&acct.CheckinStreak, &acct.TotalCheckins, &acct.LastCheckinDate)
	if err != nil {
		return res, storeErr(err)
	}

	res.Streak = acct.CheckinStreak
	res.TotalCheckins = acct.TotalCheckins
	if acct.LastCheckinDate != nil {
		last := dateOnly(*acct.LastCheckinDate)
		res.LastCheckinDate = last.Format("2006-01-02")
		res.CheckedInToday = last.Equal(today)
	}

	// A checkin today continues the streak only when the last one was
	// yesterday; after a checkin today the preview is for tomorrow.
	switch {
	case res.CheckedInToday:
		res.NextStreak = acct.CheckinStreak + 1
	case acct.LastCheckinDate != nil && int(today.Sub(dateOnly(*acct.LastCheckinDate)).Hours()/24) == 1:
		res.NextStreak = acct.CheckinStreak + 1
	default:
		res.NextStreak = 1
	}
	res.NextStreakBonus = streakBonus(res.NextStreak)
	return res, nil
}
