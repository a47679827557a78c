package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// victimProtected reports whether the victim's cash sits under the
// protection floor. A victim holding exactly the floor is a legal
// target; the take then caps at zero.
func victimProtected(victimCash, floor int64) bool {
	return victimCash < floor
}

// robberyTake draws the stolen amount. The take is capped by what the
// victim holds above the protection floor; a cap below the configured
// minimum takes the whole cap instead of skipping the rob.
func robberyTake(victimCash, protection, minAmount, maxAmount int64, rng Rand) int64 {
	ceiling := victimCash - protection
	if ceiling > maxAmount {
		ceiling = maxAmount
	}
	if ceiling <= 0 {
		return 0
	}
	if ceiling < minAmount {
		return ceiling
	}
	return minAmount + int64(rng.IntN(int(ceiling-minAmount)+1))
}

// Rob attempts to steal cash from the victim. Eligibility, cooldown and
// the probabilistic draw all resolve inside one transaction holding
// both rows, so the outcome and both balance moves are atomic. A failed
// attempt costs the robber a penalty paid to the victim.
func (s *Service) Rob(ctx context.Context, robberID, robberName, victimID string) (RobResult, error) {
	var res RobResult
	if robberID == victimID {
		res.Declined = decline(DeclineSelfTarget, "cannot rob yourself")
		return res, nil
	}
	if err := s.EnsureAccount(ctx, robberID, robberName); err != nil {
		return res, err
	}

	now := s.now()

	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		res = RobResult{}

		robber, victim, err := lockAccountPair(ctx, tx, robberID, victimID)
		if err != nil {
			if err == pgx.ErrNoRows {
				res.Declined = decline(DeclineAccountNotFound, "target has no account")
				return nil
			}
			return err
		}
		res.VictimName = victim.DisplayName

		if robber.Level < s.cfg.RobberyLevelRequired {
			res.Declined = decline(DeclineLevelTooLow,
				fmt.Sprintf("robbery requires level %d, you are level %d", s.cfg.RobberyLevelRequired, robber.Level))
			return nil
		}

		var lastRob *time.Time
		if err := tx.QueryRow(ctx, `
			SELECT created_at FROM robbery_records
			WHERE robber_id = $1
			ORDER BY created_at DESC
			LIMIT 1
		`, robberID).Scan(&lastRob); err != nil && err != pgx.ErrNoRows {
			return err
		}
		if lastRob != nil {
			cooldown := time.Duration(s.cfg.RobberyCooldownHours * float64(time.Hour))
			if ends := lastRob.Add(cooldown); now.Before(ends) {
				mins := remainingMinutes(ends, now)
				d := decline(DeclineOnCooldown,
					fmt.Sprintf("still laying low, %d minutes left", mins))
				d.RetryAfterMinutes = mins
				res.Declined = d
				return nil
			}
		}

		if victimProtected(victim.Cash, s.cfg.RobberyProtectionFloor) {
			res.Declined = decline(DeclineVictimProtected,
				fmt.Sprintf("%s has too little cash to be worth robbing", victim.DisplayName))
			return nil
		}

		success := s.rng.Float64() < s.cfg.RobberySuccessRate
		var amount int64
		if success {
			amount = robberyTake(victim.Cash, s.cfg.RobberyProtectionFloor,
				s.cfg.RobberyMinAmount, s.cfg.RobberyMaxAmount, s.rng)
			// Loot moves cash only; lifetime income tracks work and
			// checkin payouts, not redistribution.
			if _, err := tx.Exec(ctx, `
				UPDATE accounts SET cash = cash + $1, updated_at = now()
				WHERE user_id = $2
			`, amount, robberID); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE accounts SET cash = cash - $1, updated_at = now()
				WHERE user_id = $2
			`, amount, victimID); err != nil {
				return err
			}
			res.RobberCash = robber.Cash + amount
			res.VictimCash = victim.Cash - amount
		} else {
			// Penalty is capped at what the robber actually holds so the
			// cash floor is never violated.
			amount = s.cfg.RobberyFailurePenalty
			if amount > robber.Cash {
				amount = robber.Cash
			}
			if amount > 0 {
				if _, err := tx.Exec(ctx, `
					UPDATE accounts SET cash = cash - $1, updated_at = now()
					WHERE user_id = $2
				`, amount, robberID); err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, `
					UPDATE accounts SET cash = cash + $1, updated_at = now()
					WHERE user_id = $2
				`, amount, victimID); err != nil {
					return err
				}
			}
			res.RobberCash = robber.Cash - amount
			res.VictimCash = victim.Cash + amount
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO robbery_records (robber_id, victim_id, success, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, robberID, victimID, success, amount, now); err != nil {
			return err
		}

		res.Success = success
		res.Amount = amount
		return nil
	})
	return res, err
}
