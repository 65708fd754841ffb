package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/logging"
	store "essayproxy-go/internal/storage"

	"github.com/spf13/cobra"
)

type indexState struct {
	Backend    string `json:"backend"`
	Key        string `json:"key"`
	Index      int    `json:"index"`
	PoolSize   int    `json:"pool_size"`
	Position   int    `json:"position"`
	Credential string `json:"credential,omitempty"`
}

func describe(cfg *config.Config, backend store.IndexBackend, idx int) indexState {
	keys := cfg.Credentials()
	st := indexState{
		Backend:  store.DetectBackendLabel(backend),
		Key:      cfg.Storage.IndexKey,
		Index:    idx,
		PoolSize: len(keys),
	}
	if len(keys) > 0 {
		st.Position = ((idx % len(keys)) + len(keys)) % len(keys)
		st.Credential = logging.MaskSecret(keys[st.Position])
	}
	return st
}

func printState(cmd *cobra.Command, st indexState, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(out, "backend:  %s\n", st.Backend)
	fmt.Fprintf(out, "key:      %s\n", st.Key)
	fmt.Fprintf(out, "index:    %d\n", st.Index)
	if st.PoolSize > 0 {
		fmt.Fprintf(out, "position: %d of %d (%s)\n", st.Position, st.PoolSize, st.Credential)
	} else {
		fmt.Fprintln(out, "position: no API keys configured")
	}
	return nil
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored rotation index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd.Context())
			defer cancel()
			cfg, backend, err := opts.openBackend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			idx, err := backend.Get(ctx)
			if err != nil {
				return fmt.Errorf("read index: %w", err)
			}
			return printState(cmd, describe(cfg, backend, idx), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON bool
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "set <index>",
		Short: "Overwrite the stored rotation index",
		Long: `Overwrite the stored rotation index. The value is reduced modulo the
number of configured API keys unless --raw is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("index must be a non-negative integer, got %q", args[0])
			}
			return writeIndex(cmd, opts, n, raw, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "store the value as given, without reducing it")
	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the stored rotation index to 0",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeIndex(cmd, opts, 0, true, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeIndex(cmd *cobra.Command, opts *rootOptions, n int, raw, asJSON bool) error {
	ctx, cancel := opts.context(cmd.Context())
	defer cancel()
	cfg, backend, err := opts.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	if size := len(cfg.Credentials()); !raw && size > 0 {
		n %= size
	}
	if err := backend.Set(ctx, n); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return printState(cmd, describe(cfg, backend, n), asJSON)
}
