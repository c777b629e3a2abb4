package main

import (
	"fmt"

	"commerce-service-go/internal/common"
	"commerce-service-go/internal/sweeper"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func paymentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect and refund purchases",
	}
	cmd.AddCommand(paymentStatusCmd(a))
	cmd.AddCommand(paymentRefundCmd(a))
	cmd.AddCommand(paymentListCmd(a))
	cmd.AddCommand(paymentSweepCmd(a))
	return cmd
}

func parseIdArg(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return id, nil
}

func paymentStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [purchase-id]",
		Short: "Show a purchase and its live Stripe status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purchaseId, err := parseIdArg("purchase id", args[0])
			if err != nil {
				return err
			}

			services, err := common.InitializeServices(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer services.Close()

			status, err := services.Payments.GetPaymentStatus(cmd.Context(), purchaseId)
			if err != nil {
				return err
			}
			common.PrintPurchase(cmd.OutOrStdout(), status.Purchase, status.ProcessorStatus)
			return nil
		},
	}
}

func paymentRefundCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refund [purchase-id]",
		Short: "Refund a completed purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purchaseId, err := parseIdArg("purchase id", args[0])
			if err != nil {
				return err
			}

			confirm, _ := cmd.Flags().GetBool("yes")
			if !confirm {
				return fmt.Errorf("refunds move money; re-run with --yes to confirm")
			}

			services, err := common.InitializeServices(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer services.Close()

			zap.L().Info("Refund requested from CLI", zap.String("purchase_id", purchaseId.String()))
			p, err := services.Payments.RefundPayment(cmd.Context(), purchaseId)
			if err != nil {
				return err
			}
			common.PrintPurchase(cmd.OutOrStdout(), p, "")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the refund")
	return cmd
}

func paymentListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's purchases, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawUser, _ := cmd.Flags().GetString("user")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			userId, err := parseIdArg("user id", rawUser)
			if err != nil {
				return err
			}

			services, err := common.InitializeServices(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer services.Close()

			purchases, err := services.Payments.ListPayments(cmd.Context(), userId, limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			common.PrintHeader(out, fmt.Sprintf("Purchases for %s (%d)", userId, len(purchases)), common.WideWidth)
			for i := range purchases {
				common.PrintPurchase(out, &purchases[i], "")
			}
			return nil
		},
	}
	cmd.Flags().String("user", "", "User id (required)")
	cmd.Flags().Int("limit", 20, "Maximum results")
	cmd.Flags().Int("offset", 0, "Results to skip")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func paymentSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation sweep of stale pending and processing purchases",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := common.InitializeServices(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer services.Close()

			summary, err := sweeper.NewIntentSweeper(sweeper.Config{
				Store:       services.Store,
				Processor:   services.Stripe,
				Reconciler:  services.Reconciler,
				StaleAfter:  a.cfg.Sweeper.StaleAfter,
				BatchSize:   a.cfg.Sweeper.BatchSize,
				Concurrency: a.cfg.Sweeper.Concurrency,
			}).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d applied=%d unchanged=%d failed=%d\n",
				summary.Checked, summary.Applied, summary.Unchanged, summary.Failed)
			return nil
		},
	}
}
