package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/reputation"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// AdminCommands returns the operator commands for judges and credits.
func AdminCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "qualify",
			Usage:     "Mark a judge as qualified to submit judgments",
			ArgsUsage: "USER_ID",
			Action:    handleQualify(deps),
		},
		{
			Name:      "revoke",
			Usage:     "Revoke a judge's qualification",
			ArgsUsage: "USER_ID",
			Action:    handleRevoke(deps),
		},
		{
			Name:      "grant-credits",
			Usage:     "Grant prepaid credits to a user",
			ArgsUsage: "USER_ID AMOUNT [REFERENCE]",
			Action:    handleGrantCredits(deps),
		},
		{
			Name:  "sweep-refunds",
			Usage: "Retry refunds left pending by failed cancellations",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Value: 100,
					Usage: "Maximum refunds to retry",
				},
			},
			Action: handleSweepRefunds(deps),
		},
		{
			Name:  "needs-review",
			Usage: "List earnings held for review after a failed judgment write",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Maximum earnings to list",
				},
			},
			Action: handleNeedsReview(deps),
		},
		{
			Name:      "earning",
			Usage:     "Show the earning attached to a judgment",
			ArgsUsage: "JUDGMENT_ID",
			Action:    handleEarning(deps),
		},
		{
			Name:      "recalculate",
			Usage:     "Recompute a judge's reputation",
			ArgsUsage: "USER_ID",
			Action:    handleRecalculate(deps),
		},
	}
}

func parseUserID(c *cli.Command) (uuid.UUID, error) {
	if c.Args().Len() < 1 {
		return uuid.Nil, ErrUserIDRequired
	}

	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}

	return id, nil
}

// handleQualify handles the 'qualify' command.
func handleQualify(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		judgeID, err := parseUserID(c)
		if err != nil {
			return err
		}

		if err := deps.DB.Model().Qualification().Qualify(ctx, judgeID); err != nil {
			return err
		}

		deps.Logger.Info("Qualified judge", zap.String("judgeID", judgeID.String()))

		return nil
	}
}

// handleRevoke handles the 'revoke' command.
func handleRevoke(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		judgeID, err := parseUserID(c)
		if err != nil {
			return err
		}

		if err := deps.DB.Model().Qualification().Revoke(ctx, judgeID); err != nil {
			return err
		}

		deps.Logger.Info("Revoked judge qualification", zap.String("judgeID", judgeID.String()))

		return nil
	}
}

// handleGrantCredits handles the 'grant-credits' command.
func handleGrantCredits(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		userID, err := parseUserID(c)
		if err != nil {
			return err
		}

		if c.Args().Len() < 2 {
			return ErrAmountRequired
		}

		amount, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
		if err != nil || amount <= 0 {
			return ErrInvalidAmount
		}

		applied, err := deps.Services.Credits.Grant(ctx, userID, amount, c.Args().Get(2))
		if err != nil {
			return err
		}

		if !applied {
			deps.Logger.Info("Grant already applied", zap.String("reference", c.Args().Get(2)))
			return nil
		}

		balance, err := deps.Services.Credits.Balance(ctx, userID)
		if err != nil {
			return err
		}

		deps.Logger.Info("Granted credits",
			zap.String("userID", userID.String()),
			zap.Int64("amount", amount),
			zap.Int64("balance", balance))

		return nil
	}
}

// handleSweepRefunds handles the 'sweep-refunds' command.
func handleSweepRefunds(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		settled, err := deps.Services.Refunds.RetryPending(ctx, int(c.Int("limit")))
		if err != nil {
			return err
		}

		deps.Logger.Info("Swept pending refunds", zap.Int("settled", settled))

		return nil
	}
}

// handleRecalculate handles the 'recalculate' command.
func handleRecalculate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		judgeID, err := parseUserID(c)
		if err != nil {
			return err
		}

		rep, err := deps.Services.Reputation.UpdateReviewerReputation(ctx, judgeID, reputation.TriggerRecalculated)
		if err != nil {
			return err
		}

		deps.Logger.Info("Recalculated reputation",
			zap.String("judgeID", judgeID.String()),
			zap.Float64("score", rep.ReputationScore),
			zap.String("status", rep.ReviewerStatus.String()))

		return nil
	}
}

// handleNeedsReview handles the 'needs-review' command.
func handleNeedsReview(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		limit := int(c.Int("limit"))
		if limit <= 0 {
			return ErrInvalidLimit
		}

		earnings, err := deps.DB.Model().Earning().ListNeedsReview(ctx, limit)
		if err != nil {
			return err
		}

		for _, earning := range earnings {
			deps.Logger.Info("Earning held for review",
				zap.String("earningID", earning.ID.String()),
				zap.String("judgeID", earning.JudgeID.String()),
				zap.String("requestID", earning.RequestID.String()),
				zap.Int64("amount", earning.Amount),
				zap.String("notes", earning.Notes),
				zap.Time("createdAt", earning.CreatedAt))
		}

		deps.Logger.Info("Listed earnings held for review", zap.Int("count", len(earnings)))
		return nil
	}
}

// handleEarning handles the 'earning' command.
func handleEarning(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() < 1 {
			return ErrJudgmentIDRequired
		}

		judgmentID, err := uuid.Parse(c.Args().First())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
		}

		earning, err := deps.DB.Model().Earning().GetEarningByJudgment(ctx, judgmentID)
		if err != nil {
			return err
		}

		deps.Logger.Info("Earning",
			zap.String("earningID", earning.ID.String()),
			zap.String("judgeID", earning.JudgeID.String()),
			zap.Int64("amount", earning.Amount),
			zap.String("currency", earning.Currency),
			zap.String("payoutStatus", earning.PayoutStatus.String()),
			zap.String("requestType", earning.RequestType.String()))
		return nil
	}
}
