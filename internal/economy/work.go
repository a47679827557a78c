package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Job is one catalog entry. The catalog is static: pay scales and
// gates are game rules, not deployment configuration.
type Job struct {
	Name          string
	Description   string
	BaseSalary    int64
	MinSalary     int64
	MaxSalary     int64
	LevelRequired int
	CooldownHours float64
	ExpReward     int64
}

var jobCatalog = []Job{
	{Name: "laborer", Description: "basic manual work, steady pay", BaseSalary: 80, MinSalary: 60, MaxSalary: 120, LevelRequired: 1, CooldownHours: 1, ExpReward: 5},
	{Name: "food runner", Description: "deliver meals, paid per run", BaseSalary: 120, MinSalary: 80, MaxSalary: 180, LevelRequired: 1, CooldownHours: 1, ExpReward: 8},
	{Name: "store clerk", Description: "counter shifts, light and stable", BaseSalary: 150, MinSalary: 100, MaxSalary: 200, LevelRequired: 2, CooldownHours: 2, ExpReward: 10},
	{Name: "courier", Description: "parcel routes with per-package bonus", BaseSalary: 200, MinSalary: 150, MaxSalary: 280, LevelRequired: 3, CooldownHours: 2, ExpReward: 15},
	{Name: "support agent", Description: "phone support, talking all day", BaseSalary: 250, MinSalary: 180, MaxSalary: 350, LevelRequired: 5, CooldownHours: 3, ExpReward: 20},
	{Name: "designer", Description: "creative work when inspiration hits", BaseSalary: 450, MinSalary: 280, MaxSalary: 700, LevelRequired: 8, CooldownHours: 4, ExpReward: 40},
	{Name: "programmer", Description: "ship code, high skill floor", BaseSalary: 500, MinSalary: 300, MaxSalary: 800, LevelRequired: 10, CooldownHours: 4, ExpReward: 50},
	{Name: "analyst", Description: "market research, well paid", BaseSalary: 800, MinSalary: 500, MaxSalary: 1200, LevelRequired: 15, CooldownHours: 6, ExpReward: 80},
	{Name: "consultant", Description: "strategy advice, top rate", BaseSalary: 1000, MinSalary: 600, MaxSalary: 1500, LevelRequired: 20, CooldownHours: 8, ExpReward: 100},
}

func jobByName(name string) (Job, bool) {
	for _, j := range jobCatalog {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

type salaryBreakdown struct {
	Salary        int64
	LevelBonus    int64
	LuckBonus     int64
	LuckTriggered bool
	Total         int64
	ExpGained     int64
}

// salaryFor draws the payout: uniform salary within the job range, a
// 2%-per-level bonus off the job's base salary, and a 10% chance of a
// 50% luck bonus on the drawn salary.
func salaryFor(job Job, level int, expMultiplier float64, rng Rand) salaryBreakdown {
	var b salaryBreakdown
	b.Salary = job.MinSalary + int64(rng.IntN(int(job.MaxSalary-job.MinSalary)+1))
	b.LevelBonus = int64(float64(job.BaseSalary) * float64(level-1) * levelBonusPerLevel)
	if rng.Float64() < luckBonusChance {
		b.LuckBonus = int64(float64(b.Salary) * luckBonusFraction)
		b.LuckTriggered = true
	}
	b.Total = b.Salary + b.LevelBonus + b.LuckBonus
	b.ExpGained = int64(float64(job.ExpReward) * expMultiplier)
	return b
}

// Work runs one shift of the named job: level gate, daily quota, and
// per-job cooldown are all checked against the work log inside the
// mutating transaction, so two concurrent calls cannot both pass.
func (s *Service) Work(ctx context.Context, userID, displayName, jobName string) (WorkResult, error) {
	var res WorkResult
	job, ok := jobByName(jobName)
	if !ok {
		res.Declined = decline(DeclineUnknownJob, fmt.Sprintf("no such job: %q", jobName))
		return res, nil
	}
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}

	now := s.now()
	dayStart, dayEnd := s.dayWindow(now)

	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		res = WorkResult{}

		acct, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}

		if acct.Level < job.LevelRequired {
			res.Declined = decline(DeclineLevelTooLow,
				fmt.Sprintf("%s requires level %d, you are level %d", job.Name, job.LevelRequired, acct.Level))
			return nil
		}

		var todayCount int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM work_records
			WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		`, userID, dayStart, dayEnd).Scan(&todayCount); err != nil {
			return err
		}
		if todayCount >= s.cfg.DailyWorkLimit {
			res.Declined = decline(DeclineDailyQuotaExceeded,
				fmt.Sprintf("daily work limit reached (%d shifts)", s.cfg.DailyWorkLimit))
			res.QuotaUsed = todayCount
			return nil
		}

		var lastWork *time.Time
		if err := tx.QueryRow(ctx, `
			SELECT created_at FROM work_records
			WHERE user_id = $1 AND job_name = $2
			ORDER BY created_at DESC
			LIMIT 1
		`, userID, job.Name).Scan(&lastWork); err != nil && err != pgx.ErrNoRows {
			return err
		}
		if lastWork != nil {
			cooldown := time.Duration(job.CooldownHours * s.cfg.WorkCooldownMultiplier * float64(time.Hour))
			if ends := lastWork.Add(cooldown); now.Before(ends) {
				mins := remainingMinutes(ends, now)
				d := decline(DeclineOnCooldown,
					fmt.Sprintf("%s is on cooldown, %d minutes left", job.Name, mins))
				d.RetryAfterMinutes = mins
				res.Declined = d
				res.QuotaUsed = todayCount
				res.QuotaRemaining = s.cfg.DailyWorkLimit - todayCount
				return nil
			}
		}

		pay := salaryFor(job, acct.Level, s.cfg.WorkExpMultiplier, s.rng)
		newExp := acct.Experience + pay.ExpGained
		newLevel := LevelForExperience(newExp)

		if _, err := tx.Exec(ctx, `
			UPDATE accounts
			SET cash = cash + $1,
			    total_earned = total_earned + $1,
			    experience = $2,
			    level = $3,
			    last_work_time = $4,
			    updated_at = now()
			WHERE user_id = $5
		`, pay.Total, newExp, newLevel, now, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO work_records (user_id, job_name, base_salary, bonus, total_earned, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, job.Name, pay.Salary, pay.LevelBonus+pay.LuckBonus, pay.Total, now); err != nil {
			return err
		}

		res.JobName = job.Name
		res.Salary = pay.Salary
		res.LevelBonus = pay.LevelBonus
		res.LuckBonus = pay.LuckBonus
		res.LuckTriggered = pay.LuckTriggered
		res.TotalEarned = pay.Total
		res.ExpGained = pay.ExpGained
		res.Cash = acct.Cash + pay.Total
		res.Experience = newExp
		res.Level = newLevel
		res.LevelUp = newLevel > acct.Level
		res.QuotaUsed = todayCount + 1
		res.QuotaRemaining = s.cfg.DailyWorkLimit - todayCount - 1
		return nil
	})
	return res, err
}

// Jobs lists the catalog annotated with the caller's level gates,
// cooldown state, and remaining daily quota.
func (s *Service) Jobs(ctx context.Context, userID, displayName string) (JobsResult, error) {
	var res JobsResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}

	now := s.now()
	dayStart, dayEnd := s.dayWindow(now)

	var level int
	if err := s.db.QueryRow(ctx, `SELECT level FROM accounts WHERE user_id = $1`, userID).Scan(&level); err != nil {
		return res, storeErr(err)
	}

	var quotaUsed int
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM work_records
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`, userID, dayStart, dayEnd).Scan(&quotaUsed); err != nil {
		return res, storeErr(err)
	}

	// Latest shift per job in one scan.
	lastByJob := make(map[string]time.Time, len(jobCatalog))
	rows, err := s.db.Query(ctx, `
		SELECT job_name, MAX(created_at)
		FROM work_records
		WHERE user_id = $1
		GROUP BY job_name
	`, userID)
	if err != nil {
		return res, storeErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return res, err
		}
		lastByJob[name] = at
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	res.Level = level
	res.QuotaUsed = quotaUsed
	res.QuotaLimit = s.cfg.DailyWorkLimit
	for _, job := range jobCatalog {
		status := JobStatus{
			Name:          job.Name,
			Description:   job.Description,
			MinSalary:     job.MinSalary,
			MaxSalary:     job.MaxSalary,
			LevelRequired: job.LevelRequired,
			CooldownHours: job.CooldownHours,
			ExpReward:     job.ExpReward,
			Unlocked:      level >= job.LevelRequired,
		}
		status.Available = status.Unlocked && quotaUsed < s.cfg.DailyWorkLimit
		if last, ok := lastByJob[job.Name]; ok {
			cooldown := time.Duration(job.CooldownHours * s.cfg.WorkCooldownMultiplier * float64(time.Hour))
			if ends := last.Add(cooldown); now.Before(ends) {
				status.Available = false
				status.CooldownEnds = &ends
			}
		}
		res.Jobs = append(res.Jobs, status)
	}
	return res, nil
}
