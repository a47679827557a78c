package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "lootbot/internal/cli"
	"lootbot/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLI()
	apiBase := cfg.APIBaseURL
	who := cl.Caller{UserID: cfg.UserID, DisplayName: cfg.DisplayName}

	root := &cobra.Command{
		Use:          "lootctl",
		Short:        "Lootbot economy client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")
	root.PersistentFlags().StringVar(&who.UserID, "user", who.UserID, "acting user id")
	root.PersistentFlags().StringVar(&who.DisplayName, "name", who.DisplayName, "acting display name")

	root.AddCommand(
		newCheckinCmd(&apiBase, &who),
		newJobsCmd(&apiBase, &who),
		newWorkCmd(&apiBase, &who),
		newBankCmd(&apiBase, &who),
		newRobCmd(&apiBase, &who),
		newRankCmd(&apiBase, &who),
		newTopCmd(&apiBase),
		newProfileCmd(&apiBase, &who),
		newInterestCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func callCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func requireUser(who *cl.Caller) error {
	if strings.TrimSpace(who.UserID) == "" {
		return errors.New("set --user or LOOTCTL_USER_ID")
	}
	return nil
}

func newCheckinCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Daily checkin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Checkin(ctx, *who)
			if err != nil {
				return err
			}
			renderCheckin(out)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show checkin streak state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).CheckinInfo(ctx, *who)
			if err != nil {
				return err
			}
			renderKV("Checkin", out)
			return nil
		},
	})
	return cmd
}

func newJobsCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs and availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Jobs(ctx, *who)
			if err != nil {
				return err
			}
			renderJobs(out)
			return nil
		},
	}
}

func newWorkCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	return &cobra.Command{
		Use:   "work <job>",
		Short: "Run one shift of a job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Work(ctx, *who, strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderWork(out)
			return nil
		},
	}
}

func newBankCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	bank := &cobra.Command{
		Use:   "bank",
		Short: "Savings account operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).BankInfo(ctx, *who)
			if err != nil {
				return err
			}
			renderKV("Bank", out)
			return nil
		},
	}
	bank.AddCommand(
		&cobra.Command{
			Use:   "deposit <amount>",
			Short: "Move cash into savings",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return bankMove(cmd, apiBase, who, args[0], "deposit")
			},
		},
		&cobra.Command{
			Use:   "withdraw <amount>",
			Short: "Move savings back to cash",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return bankMove(cmd, apiBase, who, args[0], "withdraw")
			},
		},
		&cobra.Command{
			Use:   "transfer <user-id> <amount>",
			Short: "Send savings to another account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireUser(who); err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				ctx, cancel := callCtx(cmd)
				defer cancel()
				out, err := newClient(apiBase).Transfer(ctx, *who, args[0], amount)
				if err != nil {
					return err
				}
				renderOutcome("Transfer", out)
				return nil
			},
		},
	)
	return bank
}

func bankMove(cmd *cobra.Command, apiBase *string, who *cl.Caller, rawAmount, op string) error {
	if err := requireUser(who); err != nil {
		return err
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return err
	}
	ctx, cancel := callCtx(cmd)
	defer cancel()
	client := newClient(apiBase)
	var out map[string]any
	label := "Deposit"
	if op == "withdraw" {
		label = "Withdraw"
		out, err = client.Withdraw(ctx, *who, amount)
	} else {
		out, err = client.Deposit(ctx, *who, amount)
	}
	if err != nil {
		return err
	}
	renderOutcome(label, out)
	return nil
}

func newRobCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	return &cobra.Command{
		Use:   "rob <user-id>",
		Short: "Attempt to rob another account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Rob(ctx, *who, args[0])
			if err != nil {
				return err
			}
			renderRob(out)
			return nil
		},
	}
}

func newRankCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show your ranking on a metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Rank(ctx, *who, metric)
			if err != nil {
				return err
			}
			renderKV("Rank", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "assets", "cash|assets|earned|level|checkins")
	return cmd
}

func newTopCmd(apiBase *string) *cobra.Command {
	var metric string
	var n int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Top(ctx, metric, n)
			if err != nil {
				return err
			}
			renderTop(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "assets", "cash|assets|earned|level|checkins")
	cmd.Flags().IntVar(&n, "n", 10, "number of entries")
	return cmd
}

func newProfileCmd(apiBase *string, who *cl.Caller) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the full account profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(who); err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Profile(ctx, *who)
			if err != nil {
				return err
			}
			renderKV("Profile", out)
			return nil
		},
	}
}

func newInterestCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "interest",
		Short: "Run a daily interest accrual now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			out, err := newClient(apiBase).RunInterest(ctx)
			if err != nil {
				return err
			}
			renderKV("Interest run", out)
			return nil
		},
	}
}

func parseAmount(raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
