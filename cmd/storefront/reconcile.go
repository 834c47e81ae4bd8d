package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/worker"
)

func reconcileCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Confirm stale pending orders against the payment provider",
		Long: `Scan pending orders older than RECONCILE_STALE_AFTER and re-query the
provider for each. Providers that confirm by client signature are skipped.

Examples:
  storefront reconcile --once
  storefront reconcile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			rec := worker.NewReconciler(a.service, a.orders, a.service.Provider(), reconcilerConfig(a), a.logger)
			if once {
				report := rec.RunOnce(ctx)
				a.logger.Info("reconcile finished",
					"scanned", report.Scanned, "paid", report.Paid,
					"not_paid", report.NotPaid, "failed", report.Failed, "skipped", report.Skipped)
				return nil
			}
			rec.Start(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}
