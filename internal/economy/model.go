package economy

import (
	"errors"
	"fmt"
)

const (
	checkinBaseReward   = int64(100)
	checkinRandomBonus  = int64(50) // uniform 0..50 on top of base
	luckBonusChance     = 0.10
	luckBonusFraction   = 0.5
	levelBonusPerLevel  = 0.02
	minimumDisplayLevel = 1
)

// streakTiers maps a consecutive-checkin threshold to its bonus. The
// highest threshold reached wins; tiers are not cumulative.
var streakTiers = []struct {
	Days  int
	Bonus int64
}{
	{3, 50},
	{7, 200},
	{15, 500},
	{30, 1000},
}

var (
	ErrTxConflict       = errors.New("transaction conflict: retries exhausted")
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	ErrUnknownMetric    = errors.New("unknown ranking metric")
	ErrInvariant        = errors.New("ledger invariant violated")
)

// DeclineCode identifies a business-rule rejection. Declines are part
// of an operation's normal result, never a Go error.
type DeclineCode string

const (
	DeclineBelowMinimum       DeclineCode = "below_minimum"
	DeclineAboveMaximum       DeclineCode = "above_maximum"
	DeclineInsufficientCash   DeclineCode = "insufficient_cash"
	DeclineInsufficientSavings DeclineCode = "insufficient_savings"
	DeclineDailyLimitExceeded DeclineCode = "daily_limit_exceeded"
	DeclineDailyQuotaExceeded DeclineCode = "daily_quota_exceeded"
	DeclineOnCooldown         DeclineCode = "on_cooldown"
	DeclineLevelTooLow        DeclineCode = "level_too_low"
	DeclineSelfTransfer       DeclineCode = "self_transfer"
	DeclineSelfTarget         DeclineCode = "self_target"
	DeclineVictimProtected    DeclineCode = "victim_protected"
	DeclineRecipientNotFound  DeclineCode = "recipient_not_found"
	DeclineUnknownJob         DeclineCode = "unknown_job"
	DeclineAlreadyCheckedIn   DeclineCode = "already_checked_in"
	DeclineAccountNotFound    DeclineCode = "account_not_found"
)

// Metric selects the ordering for rank and top-N queries.
type Metric string

const (
	MetricCash     Metric = "cash"     // liquid cash
	MetricAssets   Metric = "assets"   // cash + savings
	MetricEarned   Metric = "earned"   // lifetime income
	MetricLevel    Metric = "level"    // level, tie-broken by experience
	MetricCheckins Metric = "checkins" // total checkins
)

func ValidateMetric(m Metric) error {
	switch m {
	case MetricCash, MetricAssets, MetricEarned, MetricLevel, MetricCheckins:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}

// LevelForExperience maps accumulated experience to a level. Costs grow
// in four bands: 100 XP per level through 5, 200 through 10, 500
// through 15, 1000 beyond. Job and robbery gates depend on this being
// stable, so the bands are fixed rather than configurable.
func LevelForExperience(exp int64) int {
	switch {
	case exp < 0:
		return minimumDisplayLevel
	case exp < 500:
		return int(exp/100) + 1
	case exp < 1500:
		return 6 + int((exp-500)/200)
	case exp < 4000:
		return 11 + int((exp-1500)/500)
	default:
		return 16 + int((exp-4000)/1000)
	}
}

// experienceForLevel returns the cumulative XP threshold at which a
// level begins.
func experienceForLevel(level int) int64 {
	switch {
	case level <= 1:
		return 0
	case level <= 5:
		return int64(level-1) * 100
	case level <= 10:
		return 500 + int64(level-6)*200
	case level <= 15:
		return 1500 + int64(level-11)*500
	default:
		return 4000 + int64(level-16)*1000
	}
}

// LevelProgress describes where an experience total sits within its
// level band.
type LevelProgress struct {
	CurrentLevel         int   `json:"current_level"`
	NextLevel            int   `json:"next_level"`
	Experience           int64 `json:"experience"`
	ProgressWithinLevel  int64 `json:"progress_within_level"`
	XPNeededForNext      int64 `json:"xp_needed_for_next"`
	XPSpanOfCurrentLevel int64 `json:"xp_span_of_current_level"`
	PercentComplete      int   `json:"percent_complete"`
}

func LevelProgressFor(exp int64) LevelProgress {
	if exp < 0 {
		exp = 0
	}
	level := LevelForExperience(exp)
	start := experienceForLevel(level)
	nextStart := experienceForLevel(level + 1)
	span := nextStart - start
	within := exp - start
	return LevelProgress{
		CurrentLevel:         level,
		NextLevel:            level + 1,
		Experience:           exp,
		ProgressWithinLevel:  within,
		XPNeededForNext:      nextStart - exp,
		XPSpanOfCurrentLevel: span,
		PercentComplete:      int(within * 100 / span),
	}
}

// streakBonus returns the bonus for the highest tier the streak has
// reached, or 0 below the first tier.
func streakBonus(streak int) int64 {
	var bonus int64
	for _, tier := range streakTiers {
		if streak >= tier.Days {
			bonus = tier.Bonus
		}
	}
	return bonus
}
