// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-slots/internal/config"
	"github.com/jeranaias/rigrun-slots/internal/daemon"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/storage"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	embedded   bool
	noColor    bool
}

// NewRootCommand builds the command tree. Without a subcommand it starts
// the TUI.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "rigrun-slots",
		Short: "Manage the assistant slots of rigrun",
		Long: `rigrun-slots manages named assistant configurations ("slots").

The interactive interface asks for an API key, then lists your slots so you
can add, select, edit and delete them. Slots and the key are kept by a
background process: the daemon, or an in-process one with --embedded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.rigrun-slots/config.toml)")
	flags.BoolVar(&opts.embedded, "embedded", false, "run the background in-process instead of connecting to the daemon")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newTUICommand(opts),
		newDaemonCommand(opts),
		newSlotsCommand(opts),
		newShellCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderError("Error: "+err.Error()))
		return 1
	}
	return 0
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads --config when given, otherwise the default file.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromPath(o.configPath)
	}
	return config.Load()
}

// resolvedConfigPath is the file the daemon watches.
func (o *globalOptions) resolvedConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.ConfigPath()
}

// connect returns the messenger the foreground commands talk through, and
// the function that releases it.
func (o *globalOptions) connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messenger.Messenger, func() error, error) {
	if o.embedded || cfg.Client.Embedded {
		backend, err := daemon.OpenBackend(cfg, logger)
		if errors.Is(err, storage.ErrLocked) {
			return nil, nil, fmt.Errorf("the data directory is in use by a running daemon; drop --embedded to connect to it: %w", err)
		}
		if err != nil {
			return nil, nil, err
		}
		pipe := messenger.NewPipe(backend.Service, messenger.WithPipeLogger(logger))
		closeFn := func() error {
			return errors.Join(pipe.Close(), backend.Close())
		}
		return pipe, closeFn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Client.RequestTimeout())
	defer cancel()
	client, err := messenger.Dial(dialCtx, cfg.Client.DaemonURL, messenger.WithClientLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("cannot reach the daemon at %s (start it with `rigrun-slots daemon` or pass --embedded): %w",
			cfg.Client.DaemonURL, err)
	}
	return client, client.Close, nil
}

// withMessenger loads the config, connects and runs fn. Commands other than
// the TUI and the daemon log warnings to stderr.
func (o *globalOptions) withMessenger(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error) error {
	if o.noColor || os.Getenv("NO_COLOR") != "" {
		styles.DisableColor()
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger := newCommandLogger(cmd.ErrOrStderr(), cfg)

	ctx := cmd.Context()
	ms, closeFn, err := o.connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, cfg, ms)
}

func newCommandLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if level == "info" || level == "debug" {
		level = "warn"
	}
	logger, _ := newLogger(w, level, cfg.Log.Format)
	return logger
}
