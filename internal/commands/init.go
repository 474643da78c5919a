package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reskontra/reskontra/internal/accounts"
	"github.com/reskontra/reskontra/internal/config"
	"github.com/reskontra/reskontra/internal/gitops"
	"github.com/reskontra/reskontra/internal/logger"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string
	var fiscalStart string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new books repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name, entityType)
			cfg.Fiscal.YearStart = fiscalStart
			if err := cfg.Validate(); err != nil {
				return err
			}
			if noGit {
				cfg.Git.AutoCommit = false
			}
			return runInit(cmd, absDir, cfg)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "limited_company", "entity type (limited_company, sole_trader)")
	cmd.Flags().StringVar(&fiscalStart, "fiscal-start", "01-01", "fiscal year start as MM-DD")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, cfg *config.Config) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	dirs := []string{
		"accounts",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	chart := accounts.DefaultChart(cfg.Business.EntityType)
	svc := accounts.NewService(chart)
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := ".env\nexports/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	out := cmd.OutOrStdout()
	if !cfg.Git.AutoCommit {
		fmt.Fprintf(out, "Initialized books at %s\n", dir)
		return nil
	}

	hash, err := initGit(ctx, dir, cfg)
	if err != nil {
		return err
	}
	log.Info().Str("dir", dir).Str("commit", hash).Msg("initialized repository")
	fmt.Fprintf(out, "Initialized books at %s (%s)\n", dir, hash)
	return nil
}

func initGit(ctx context.Context, dir string, cfg *config.Config) (string, error) {
	if err := gitops.Init(ctx, dir); err != nil {
		return "", err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(ctx, dir, "init: Initialize "+cfg.Business.Name, author)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}
