package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/reskontra/reskontra/internal/api"
	"github.com/reskontra/reskontra/internal/buildinfo"
	"github.com/reskontra/reskontra/internal/logger"
)

func newServeCommand() *cobra.Command {
	var repoDir, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the VAT listing, summary and reconciliation over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.FromContext(ctx)

			r, err := openRepo(ctx, repoDir)
			if err != nil {
				return err
			}
			defer r.close()

			scheme, err := r.cfg.VATScheme()
			if err != nil {
				return err
			}
			router := api.NewRouter(api.Deps{
				Source:                r.source,
				Chart:                 r.chart,
				Scheme:                scheme,
				Fiscal:                r.cfg.FiscalYear(),
				Log:                   log,
				DefaultIncomeAccount:  r.cfg.Statement.DefaultIncomeAccount,
				DefaultExpenseAccount: r.cfg.Statement.DefaultExpenseAccount,
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("version", buildinfo.String()).Msg("api server running")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serving: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info().Msg("shutting down")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}
