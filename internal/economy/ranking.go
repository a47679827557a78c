package economy

import (
	"context"
	"fmt"
)

// metricExpr maps a metric to the SQL expression it orders by. Every
// expression reads only the accounts table, so one statement sees one
// consistent snapshot.
func metricExpr(m Metric) (string, error) {
	switch m {
	case MetricCash:
		return "cash", nil
	case MetricAssets:
		return "cash + savings", nil
	case MetricEarned:
		return "total_earned", nil
	case MetricLevel:
		return "level", nil
	case MetricCheckins:
		return "total_checkins", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}

// Rank reports the caller's standing on the given metric: the count of
// accounts strictly ahead, plus one. Level ranking breaks level ties on
// experience so two same-level accounts still order deterministically.
func (s *Service) Rank(ctx context.Context, userID, displayName string, metric Metric) (RankResult, error) {
	var res RankResult
	expr, err := metricExpr(metric)
	if err != nil {
		return res, err
	}
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}

	var mine, myExp int64
	var level int
	var name string
	if err := s.db.QueryRow(ctx,
		`SELECT `+expr+`, experience, level, display_name FROM accounts WHERE user_id = $1`,
		userID).Scan(&mine, &myExp, &level, &name); err != nil {
		return res, storeErr(err)
	}

	var ahead, total int64
	if metric == MetricLevel {
		err = s.db.QueryRow(ctx, `
			SELECT COUNT(*) FILTER (WHERE level > $1 OR (level = $1 AND experience > $2)),
			       COUNT(*)
			FROM accounts
		`, mine, myExp).Scan(&ahead, &total)
	} else {
		err = s.db.QueryRow(ctx,
			`SELECT COUNT(*) FILTER (WHERE `+expr+` > $1), COUNT(*) FROM accounts`,
			mine).Scan(&ahead, &total)
	}
	if err != nil {
		return res, storeErr(err)
	}

	res.Metric = metric
	res.Rank = ahead + 1
	res.Value = mine
	res.TotalAccounts = total
	res.DisplayName = name
	res.Level = level
	return res, nil
}

// TopN returns the top n accounts on the given metric, ties broken by
// user id ascending so the listing is stable across calls.
func (s *Service) TopN(ctx context.Context, metric Metric, n int) (TopResult, error) {
	var res TopResult
	expr, err := metricExpr(metric)
	if err != nil {
		return res, err
	}
	if n <= 0 {
		n = 10
	}

	order := expr + " DESC"
	if metric == MetricLevel {
		order = "level DESC, experience DESC"
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, display_name, `+expr+`, level, cash + savings
		FROM accounts
		ORDER BY `+order+`, user_id ASC
		LIMIT $1
	`, n)
	if err != nil {
		return res, storeErr(err)
	}
	defer rows.Close()

	res.Metric = metric
	rank := int64(0)
	for rows.Next() {
		var e TopEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Value, &e.Level, &e.TotalAssets); err != nil {
			return res, err
		}
		rank++
		e.Rank = rank
		res.Entries = append(res.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// Profile assembles the full account view: balances, level progress,
// checkin state, and today's robbery activity in both directions.
func (s *Service) Profile(ctx context.Context, userID, displayName string) (ProfileResult, error) {
	var res ProfileResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}
	dayStart, dayEnd := s.dayWindow(s.now())

	var exp int64
	err := s.db.QueryRow(ctx, `
		SELECT user_id, display_name, cash, savings, total_earned, experience,
		       checkin_streak, total_checkins, created_at
		FROM accounts
		WHERE user_id = $1
	`, userID).Scan(&res.UserID, &res.DisplayName, &res.Cash, &res.Savings,
		&res.TotalEarned, &exp, &res.CheckinStreak, &res.TotalCheckins, &res.CreatedAt)
	if err != nil {
		return res, storeErr(err)
	}

	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE robber_id = $1),
		       COUNT(*) FILTER (WHERE victim_id = $1)
		FROM robbery_records
		WHERE (robber_id = $1 OR victim_id = $1)
		  AND created_at >= $2 AND created_at < $3
	`, userID, dayStart, dayEnd).Scan(&res.RobsToday, &res.RobbedToday); err != nil {
		return res, storeErr(err)
	}

	res.TotalAssets = res.Cash + res.Savings
	res.Progress = LevelProgressFor(exp)
	res.Level = res.Progress.CurrentLevel
	return res, nil
}
