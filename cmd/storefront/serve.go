package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
	httptransport "github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/transport/http"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/worker"
)

func serveCmd() *cobra.Command {
	var withReconciler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checkout API and provider webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			h := httptransport.New(a.service, []payment.WebhookProcessor{a.processor}, a.logger,
				httptransport.WithRequestTimeout(a.cfg.ProviderTimeout*3),
				httptransport.WithHealthCheck(a.db.PingContext),
			)
			srv := &http.Server{
				Addr:              a.cfg.HTTPAddr,
				Handler:           httptransport.NewRouter(h, httptransport.NewRateLimiter(a.cfg.RateRPS, a.cfg.RateBurst)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			var wg sync.WaitGroup
			if withReconciler {
				rec := worker.NewReconciler(a.service, a.orders, a.service.Provider(), reconcilerConfig(a), a.logger)
				wg.Add(1)
				go func() {
					defer wg.Done()
					rec.Start(ctx)
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "addr", srv.Addr, "provider", a.cfg.Provider)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					stop()
					wg.Wait()
					return err
				}
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http shutdown", "error", err)
			}
			wg.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&withReconciler, "reconcile", true, "run the pending order reconciler in this process")
	return cmd
}

func reconcilerConfig(a *app) worker.Config {
	return worker.Config{
		Interval:   a.cfg.ReconcileInterval,
		StaleAfter: a.cfg.ReconcileStaleAfter,
		BatchSize:  a.cfg.ReconcileBatch,
		Workers:    a.cfg.ReconcileWorkers,
	}
}
