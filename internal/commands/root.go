package commands

import (
	"github.com/spf13/cobra"

	"github.com/reskontra/reskontra/internal/buildinfo"
	"github.com/reskontra/reskontra/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     "reskontra",
		Short:   "Bank statement reconciliation and VAT listings for double-entry books",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), logger.New(level)))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReconcileCommand())
	rootCmd.AddCommand(newVATCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
