package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/reskontra/reskontra/internal/accounts"
	"github.com/reskontra/reskontra/internal/config"
	"github.com/reskontra/reskontra/internal/journal"
	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/logger"
)

const dateLayout = "2006-01-02"

// repo is an opened books repository: its config, chart, journal and the
// ledger source the config selects.
type repo struct {
	root    string
	cfg     *config.Config
	chart   *accounts.Service
	journal *journal.Service
	source  ledger.Source
	cache   *ledger.CachedSource
	close   func()
}

func openRepo(ctx context.Context, dir string) (*repo, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	log := logger.FromContext(ctx)

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(root); err != nil {
		return nil, err
	}
	chart, err := accounts.Load(root)
	if err != nil {
		return nil, err
	}

	r := &repo{
		root:    root,
		cfg:     cfg,
		chart:   chart,
		journal: journal.NewService(root, chart),
		close:   func() {},
	}

	var base ledger.Source
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		pool, err := ledger.Connect(ctx, cfg.Ledger.DSN)
		if err != nil {
			return nil, err
		}
		var opts []ledger.PostgresOption
		if cfg.Ledger.Retries > 0 {
			opts = append(opts, ledger.WithRetries(cfg.Ledger.Retries))
		}
		base = ledger.NewPostgresSource(pool, opts...)
		r.close = pool.Close
	default:
		base = ledger.NewJournalSource(r.journal, chart)
	}

	cache, err := ledger.NewCachedSource(base, cfg.Ledger.CacheSize)
	if err != nil {
		r.close()
		return nil, err
	}
	r.cache = cache
	r.source = cache
	closeBase := r.close
	r.close = func() {
		cache.Close()
		closeBase()
	}

	log.Debug().
		Str("root", root).
		Str("backend", cfg.Ledger.Backend).
		Int("accounts", len(chart.All())).
		Msg("opened repository")
	return r, nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, value)
	}
	return d, nil
}
