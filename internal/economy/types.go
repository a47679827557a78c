package economy

import "time"

// Config holds every tunable rate and limit. It is read once at
// construction; changing tunables means building a new Service.
type Config struct {
	MinDeposit         int64
	MaxDeposit         int64
	MinWithdraw        int64
	MaxWithdraw        int64
	DailyWithdrawLimit int64

	BaseInterestRate float64 // daily fractional rate
	VIPInterestRate  float64
	VIPThreshold     int64

	DailyWorkLimit         int
	WorkCooldownMultiplier float64
	WorkExpMultiplier      float64

	RobberySuccessRate     float64
	RobberyMinAmount       int64
	RobberyMaxAmount       int64
	RobberyCooldownHours   float64
	RobberyLevelRequired   int
	RobberyProtectionFloor int64
	RobberyFailurePenalty  int64

	// Location fixes the calendar-day boundary for streaks, quotas and
	// daily limits. Nil means time.Local.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		MinDeposit:         10,
		MaxDeposit:         100_000,
		MinWithdraw:        10,
		MaxWithdraw:        50_000,
		DailyWithdrawLimit: 200_000,

		BaseInterestRate: 0.001,
		VIPInterestRate:  0.0015,
		VIPThreshold:     10_000,

		DailyWorkLimit:         10,
		WorkCooldownMultiplier: 1.0,
		WorkExpMultiplier:      1.0,

		RobberySuccessRate:     0.30,
		RobberyMinAmount:       50,
		RobberyMaxAmount:       300,
		RobberyCooldownHours:   6.0,
		RobberyLevelRequired:   5,
		RobberyProtectionFloor: 100,
		RobberyFailurePenalty:  20,
	}
}

// Decline reports a business-rule rejection together with the
// quantitative constraint the caller can relay to the user.
type Decline struct {
	Code              DeclineCode `json:"code"`
	Message           string      `json:"message"`
	AmountShort       int64       `json:"amount_short,omitempty"`
	RetryAfterMinutes int64       `json:"retry_after_minutes,omitempty"`
	RemainingQuota    int64       `json:"remaining_quota,omitempty"`
	RemainingLimit    int64       `json:"remaining_limit,omitempty"`
}

type CheckinResult struct {
	Declined      *Decline `json:"declined,omitempty"`
	BaseReward    int64    `json:"base_reward,omitempty"`
	RandomBonus   int64    `json:"random_bonus,omitempty"`
	StreakBonus   int64    `json:"streak_bonus,omitempty"`
	TotalReward   int64    `json:"total_reward,omitempty"`
	Streak        int      `json:"streak,omitempty"`
	TotalCheckins int      `json:"total_checkins,omitempty"`
	Cash          int64    `json:"cash,omitempty"`
	Savings       int64    `json:"savings,omitempty"`
}

type CheckinInfoResult struct {
	CheckedInToday  bool   `json:"checked_in_today"`
	Streak          int    `json:"streak"`
	TotalCheckins   int    `json:"total_checkins"`
	LastCheckinDate string `json:"last_checkin_date,omitempty"`
	// NextStreak and the bonus it would carry, assuming the next
	// checkin happens on the next eligible day.
	NextStreak      int   `json:"next_streak"`
	NextStreakBonus int64 `json:"next_streak_bonus"`
}

type WorkResult struct {
	Declined       *Decline `json:"declined,omitempty"`
	JobName        string   `json:"job_name,omitempty"`
	Salary         int64    `json:"salary,omitempty"`
	LevelBonus     int64    `json:"level_bonus,omitempty"`
	LuckBonus      int64    `json:"luck_bonus,omitempty"`
	LuckTriggered  bool     `json:"luck_triggered,omitempty"`
	TotalEarned    int64    `json:"total_earned,omitempty"`
	ExpGained      int64    `json:"exp_gained,omitempty"`
	Cash           int64    `json:"cash,omitempty"`
	Experience     int64    `json:"experience,omitempty"`
	Level          int      `json:"level,omitempty"`
	LevelUp        bool     `json:"level_up,omitempty"`
	QuotaUsed      int      `json:"quota_used,omitempty"`
	QuotaRemaining int      `json:"quota_remaining"`
}

// JobStatus is one catalog entry annotated with the caller's
// eligibility.
type JobStatus struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	MinSalary     int64      `json:"min_salary"`
	MaxSalary     int64      `json:"max_salary"`
	LevelRequired int        `json:"level_required"`
	CooldownHours float64    `json:"cooldown_hours"`
	ExpReward     int64      `json:"exp_reward"`
	Unlocked      bool       `json:"unlocked"`
	Available     bool       `json:"available"`
	CooldownEnds  *time.Time `json:"cooldown_ends,omitempty"`
}

type JobsResult struct {
	Jobs       []JobStatus `json:"jobs"`
	Level      int         `json:"level"`
	QuotaUsed  int         `json:"quota_used"`
	QuotaLimit int         `json:"quota_limit"`
}

type BankResult struct {
	Declined       *Decline `json:"declined,omitempty"`
	Operation      string   `json:"operation,omitempty"`
	Amount         int64    `json:"amount,omitempty"`
	Cash           int64    `json:"cash"`
	Savings        int64    `json:"savings"`
	TotalAssets    int64    `json:"total_assets"`
	WithdrawnToday int64    `json:"withdrawn_today,omitempty"`
	RemainingLimit int64    `json:"remaining_limit,omitempty"`
}

type TransferResult struct {
	Declined    *Decline `json:"declined,omitempty"`
	Amount      int64    `json:"amount,omitempty"`
	TxGroupID   string   `json:"tx_group_id,omitempty"`
	FromSavings int64    `json:"from_savings,omitempty"`
	ToSavings   int64    `json:"to_savings,omitempty"`
}

type BankLimits struct {
	MinDeposit         int64 `json:"min_deposit"`
	MaxDeposit         int64 `json:"max_deposit"`
	MinWithdraw        int64 `json:"min_withdraw"`
	MaxWithdraw        int64 `json:"max_withdraw"`
	DailyWithdrawLimit int64 `json:"daily_withdraw_limit"`
}

type BankInfoResult struct {
	Cash            int64      `json:"cash"`
	Savings         int64      `json:"savings"`
	TotalAssets     int64      `json:"total_assets"`
	VIP             bool       `json:"vip"`
	VIPThreshold    int64      `json:"vip_threshold"`
	InterestRate    float64    `json:"interest_rate"`
	ProjectedDaily  int64      `json:"projected_daily_interest"`
	WithdrawnToday  int64      `json:"withdrawn_today"`
	RemainingLimit  int64      `json:"remaining_limit"`
	Limits          BankLimits `json:"limits"`
}

// InterestRunResult summarizes one accrual batch. Each account is an
// independent atomic unit; Failed counts accounts whose accrual errored
// without affecting the rest.
type InterestRunResult struct {
	Processed     int   `json:"processed"`
	Failed        int   `json:"failed"`
	TotalInterest int64 `json:"total_interest"`
}

type RobResult struct {
	Declined   *Decline `json:"declined,omitempty"`
	Success    bool     `json:"success"`
	Amount     int64    `json:"amount"`
	RobberCash int64    `json:"robber_cash,omitempty"`
	VictimCash int64    `json:"victim_cash,omitempty"`
	VictimName string   `json:"victim_name,omitempty"`
}

type RankResult struct {
	Metric        Metric `json:"metric"`
	Rank          int64  `json:"rank"`
	Value         int64  `json:"value"`
	TotalAccounts int64  `json:"total_accounts"`
	DisplayName   string `json:"display_name"`
	Level         int    `json:"level"`
}

type TopEntry struct {
	Rank        int64  `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Value       int64  `json:"value"`
	Level       int    `json:"level"`
	TotalAssets int64  `json:"total_assets"`
}

type TopResult struct {
	Metric  Metric     `json:"metric"`
	Entries []TopEntry `json:"entries"`
}

type ProfileResult struct {
	UserID        string        `json:"user_id"`
	DisplayName   string        `json:"display_name"`
	Cash          int64         `json:"cash"`
	Savings       int64         `json:"savings"`
	TotalAssets   int64         `json:"total_assets"`
	TotalEarned   int64         `json:"total_earned"`
	Level         int           `json:"level"`
	Progress      LevelProgress `json:"progress"`
	CheckinStreak int           `json:"checkin_streak"`
	TotalCheckins int           `json:"total_checkins"`
	RobsToday     int64         `json:"robs_today"`
	RobbedToday   int64         `json:"robbed_today"`
	CreatedAt     time.Time     `json:"created_at"`
}
