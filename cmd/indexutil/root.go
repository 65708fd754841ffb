package main

import (
	"context"
	"fmt"
	"time"

	"essayproxy-go/internal/config"
	store "essayproxy-go/internal/storage"
	"essayproxy-go/internal/version"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	timeout    time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "indexutil",
		Short: "Operate on the essayproxy rotation index",
		Long: `indexutil reads and writes the shared rotation index used by essayproxy
to pick the first API key of each request, and manages the PostgreSQL
schema when the postgres backend is selected.

The backend and connection parameters come from the same config file and
environment variables as the server.

Examples:
  indexutil get
  indexutil set 3
  indexutil reset --config /etc/essayproxy/config.yaml
  indexutil migrate up`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.WarnLevel)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "config file path")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newGetCmd(opts), newSetCmd(opts), newResetCmd(opts), newMigrateCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openBackend connects the configured backend directly. Unlike the server,
// errors are surfaced instead of being swallowed fail-open.
func (o *rootOptions) openBackend(ctx context.Context) (*config.Config, store.IndexBackend, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Backend == config.BackendNone {
		return nil, nil, fmt.Errorf("index store backend is %q; nothing to operate on", config.BackendNone)
	}
	storeCfg := cfg.Storage
	if storeCfg.ConnectTimeout <= 0 || storeCfg.ConnectTimeout > o.timeout {
		storeCfg.ConnectTimeout = o.timeout
	}
	backend, err := store.Open(ctx, storeCfg)
	if err != nil {
		if backend != nil {
			_ = backend.Close()
		}
		return nil, nil, err
	}
	return cfg, backend, nil
}

func (o *rootOptions) context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, o.timeout)
}
