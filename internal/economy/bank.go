package economy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// appendTransaction writes one bank-transaction event in the caller's
// transaction. Every savings/cash mutation in the bank engine goes
// through here so balances stay reconcilable against the log.
func appendTransaction(ctx context.Context, tx pgx.Tx, txGroupID, userID, txType string, amount, before, after int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bank_transactions (tx_group_id, user_id, type, amount, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, txGroupID, userID, txType, amount, before, after)
	return err
}

func (s *Service) checkDepositBounds(amount int64) *Decline {
	if amount < s.cfg.MinDeposit {
		d := decline(DeclineBelowMinimum, fmt.Sprintf("minimum amount is %d coins", s.cfg.MinDeposit))
		d.AmountShort = s.cfg.MinDeposit - amount
		return d
	}
	if amount > s.cfg.MaxDeposit {
		return decline(DeclineAboveMaximum, fmt.Sprintf("maximum amount per operation is %d coins", s.cfg.MaxDeposit))
	}
	return nil
}

// Deposit moves cash into savings.
func (s *Service) Deposit(ctx context.Context, userID, displayName string, amount int64) (BankResult, error) {
	var res BankResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}
	if d := s.checkDepositBounds(amount); d != nil {
		res.Declined = d
		return res, nil
	}

	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		res = BankResult{}

		acct, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if acct.Cash < amount {
			d := decline(DeclineInsufficientCash,
				fmt.Sprintf("not enough cash: have %d, need %d", acct.Cash, amount))
			d.AmountShort = amount - acct.Cash
			res.Declined = d
			res.Cash = acct.Cash
			res.Savings = acct.Savings
			res.TotalAssets = acct.Cash + acct.Savings
			return nil
		}

		newCash := acct.Cash - amount
		newSavings := acct.Savings + amount
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET cash = $1, savings = $2, updated_at = now()
			WHERE user_id = $3
		`, newCash, newSavings, userID); err != nil {
			return err
		}
		if err := appendTransaction(ctx, tx, uuid.NewString(), userID, "deposit", amount, acct.Savings, newSavings); err != nil {
			return err
		}

		res.Operation = "deposit"
		res.Amount = amount
		res.Cash = newCash
		res.Savings = newSavings
		res.TotalAssets = newCash + newSavings
		return nil
	})
	return res, err
}

// Withdraw moves savings back to cash, subject to per-operation bounds
// and the daily limit derived from today's withdraw records.
func (s *Service) Withdraw(ctx context.Context, userID, displayName string, amount int64) (BankResult, error) {
	var res BankResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}
	if amount < s.cfg.MinWithdraw {
		d := decline(DeclineBelowMinimum, fmt.Sprintf("minimum amount is %d coins", s.cfg.MinWithdraw))
		d.AmountShort = s.cfg.MinWithdraw - amount
		res.Declined = d
		return res, nil
	}
	if amount > s.cfg.MaxWithdraw {
		res.Declined = decline(DeclineAboveMaximum,
			fmt.Sprintf("maximum amount per operation is %d coins", s.cfg.MaxWithdraw))
		return res, nil
	}

	dayStart, dayEnd := s.dayWindow(s.now())

	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		res = BankResult{}

		var withdrawnToday int64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM bank_transactions
			WHERE user_id = $1 AND type = 'withdraw'
			  AND created_at >= $2 AND created_at < $3
		`, userID, dayStart, dayEnd).Scan(&withdrawnToday); err != nil {
			return err
		}
		if withdrawnToday+amount > s.cfg.DailyWithdrawLimit {
			d := decline(DeclineDailyLimitExceeded,
				fmt.Sprintf("daily withdraw limit exceeded: %d of %d used today", withdrawnToday, s.cfg.DailyWithdrawLimit))
			d.RemainingLimit = s.cfg.DailyWithdrawLimit - withdrawnToday
			res.Declined = d
			res.WithdrawnToday = withdrawnToday
			res.RemainingLimit = s.cfg.DailyWithdrawLimit - withdrawnToday
			return nil
		}

		acct, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if acct.Savings < amount {
			d := decline(DeclineInsufficientSavings,
				fmt.Sprintf("not enough savings: have %d, need %d", acct.Savings, amount))
			d.AmountShort = amount - acct.Savings
			res.Declined = d
			res.Cash = acct.Cash
			res.Savings = acct.Savings
			res.TotalAssets = acct.Cash + acct.Savings
			return nil
		}

		newCash := acct.Cash + amount
		newSavings := acct.Savings - amount
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET cash = $1, savings = $2, updated_at = now()
			WHERE user_id = $3
		`, newCash, newSavings, userID); err != nil {
			return err
		}
		if err := appendTransaction(ctx, tx, uuid.NewString(), userID, "withdraw", amount, acct.Savings, newSavings); err != nil {
			return err
		}

		res.Operation = "withdraw"
		res.Amount = amount
		res.Cash = newCash
		res.Savings = newSavings
		res.TotalAssets = newCash + newSavings
		res.WithdrawnToday = withdrawnToday + amount
		res.RemainingLimit = s.cfg.DailyWithdrawLimit - withdrawnToday - amount
		return nil
	})
	return res, err
}

// Transfer moves savings between two accounts. Both rows are locked in
// canonical order and both records are written in the one transaction:
// debit and credit land together or not at all.
func (s *Service) Transfer(ctx context.Context, fromID, fromName, toID string, amount int64) (TransferResult, error) {
	var res TransferResult
	if fromID == toID {
		res.Declined = decline(DeclineSelfTransfer, "cannot transfer to yourself")
		return res, nil
	}
	if d := s.checkDepositBounds(amount); d != nil {
		res.Declined = d
		return res, nil
	}
	if err := s.EnsureAccount(ctx, fromID, fromName); err != nil {
		return res, err
	}

	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		res = TransferResult{}

		from, to, err := lockAccountPair(ctx, tx, fromID, toID)
		if err != nil {
			if err == pgx.ErrNoRows {
				// The sender row is upserted above, so a missing row
				// can only be the recipient.
				res.Declined = decline(DeclineRecipientNotFound, "recipient has no account")
				return nil
			}
			return err
		}
		if from.Savings < amount {
			d := decline(DeclineInsufficientSavings,
				fmt.Sprintf("not enough savings: have %d, need %d", from.Savings, amount))
			d.AmountShort = amount - from.Savings
			res.Declined = d
			return nil
		}

		newFrom := from.Savings - amount
		newTo := to.Savings + amount
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET savings = $1, updated_at = now() WHERE user_id = $2
		`, newFrom, fromID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET savings = $1, updated_at = now() WHERE user_id = $2
		`, newTo, toID); err != nil {
			return err
		}

		groupID := uuid.NewString()
		if err := appendTransaction(ctx, tx, groupID, fromID, "transfer_out", amount, from.Savings, newFrom); err != nil {
			return err
		}
		if err := appendTransaction(ctx, tx, groupID, toID, "transfer_in", amount, to.Savings, newTo); err != nil {
			return err
		}

		res.Amount = amount
		res.TxGroupID = groupID
		res.FromSavings = newFrom
		res.ToSavings = newTo
		return nil
	})
	return res, err
}

// BankInfo reports balances, VIP status, today's withdraw usage and the
// configured limits. Read-only beyond the account upsert.
func (s *Service) BankInfo(ctx context.Context, userID, displayName string) (BankInfoResult, error) {
	var res BankInfoResult
	if err := s.EnsureAccount(ctx, userID, displayName); err != nil {
		return res, err
	}
	dayStart, dayEnd := s.dayWindow(s.now())

	var cash, savings int64
	if err := s.db.QueryRow(ctx, `
		SELECT cash, savings FROM accounts WHERE user_id = $1
	`, userID).Scan(&cash, &savings); err != nil {
		return res, storeErr(err)
	}

	var withdrawnToday int64
	if err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM bank_transactions
		WHERE user_id = $1 AND type = 'withdraw'
		  AND created_at >= $2 AND created_at < $3
	`, userID, dayStart, dayEnd).Scan(&withdrawnToday); err != nil {
		return res, storeErr(err)
	}

	rate := s.cfg.BaseInterestRate
	vip := savings >= s.cfg.VIPThreshold
	if vip {
		rate = s.cfg.VIPInterestRate
	}

	res.Cash = cash
	res.Savings = savings
	res.TotalAssets = cash + savings
	res.VIP = vip
	res.VIPThreshold = s.cfg.VIPThreshold
	res.InterestRate = rate
	res.ProjectedDaily = int64(float64(savings) * rate)
	res.WithdrawnToday = withdrawnToday
	res.RemainingLimit = s.cfg.DailyWithdrawLimit - withdrawnToday
	res.Limits = BankLimits{
		MinDeposit:         s.cfg.MinDeposit,
		MaxDeposit:         s.cfg.MaxDeposit,
		MinWithdraw:        s.cfg.MinWithdraw,
		MaxWithdraw:        s.cfg.MaxWithdraw,
		DailyWithdrawLimit: s.cfg.DailyWithdrawLimit,
	}
	return res, nil
}

// AccrueDailyInterest credits daily interest to every account holding
// savings. Each account is one independent transaction: a failure is
// counted and logged but never rolls back the rest of the batch. The
// run is at-most-once per invocation; callers own the schedule.
func (s *Service) AccrueDailyInterest(ctx context.Context) (InterestRunResult, error) {
	var res InterestRunResult

	rows, err := s.db.Query(ctx, `
		SELECT user_id FROM accounts WHERE savings > 0 ORDER BY user_id
	`)
	if err != nil {
		return res, storeErr(err)
	}
	holders := make([]string, 0, 64)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return res, err
		}
		holders = append(holders, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, err
	}

	for _, userID := range holders {
		interest, err := s.accrueInterestFor(ctx, userID)
		if err != nil {
			res.Failed++
			s.log.Error("interest accrual failed", "user_id", userID, "err", err)
			continue
		}
		if interest > 0 {
			res.Processed++
			res.TotalInterest += interest
		}
	}

	s.log.Info("interest accrual complete",
		"processed", res.Processed, "failed", res.Failed, "total_interest", res.TotalInterest)
	return res, nil
}

func (s *Service) accrueInterestFor(ctx context.Context, userID string) (int64, error) {
	var credited int64
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		credited = 0

		acct, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		rate := s.cfg.BaseInterestRate
		if acct.Savings >= s.cfg.VIPThreshold {
			rate = s.cfg.VIPInterestRate
		}
		interest := int64(float64(acct.Savings) * rate)
		if interest <= 0 {
			return nil
		}

		newSavings := acct.Savings + interest
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET savings = $1, updated_at = now() WHERE user_id = $2
		`, newSavings, userID); err != nil {
			return err
		}
		if err := appendTransaction(ctx, tx, uuid.NewString(), userID, "interest", interest, acct.Savings, newSavings); err != nil {
			return err
		}
		credited = interest
		return nil
	})
	return credited, err
}
