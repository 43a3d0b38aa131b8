// Command swf-worker runs the activity and decision workers against SWF or one of the local
// backends.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/internal/config"
)

type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{v: config.New()}

	cmd := &cobra.Command{
		Use:               "swf-worker",
		Short:             "Runs SWF activity and decision workers",
		SilenceUsage:      true,
		PersistentPreRunE: c.setupConfig,
	}

	config.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(c.runCommand(), c.startCommand(), c.localCommand())

	return cmd
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}

	if err := config.BindFlags(c.v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(c.v, configFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)

	return nil
}

// setup creates the tracer provider and the configured backend. The returned function releases
// both.
func (c *cli) setup(ctx context.Context) (backend.Backend, func(), error) {
	tp, shutdownTracing, err := setupTracing(ctx, c.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up tracing: %w", err)
	}

	opts := []backend.BackendOption{backend.WithLogger(c.logger)}
	if tp != nil {
		opts = append(opts, backend.WithTracerProvider(tp))
	}

	b, err := newBackend(ctx, c.cfg, opts...)
	if err != nil {
		shutdownTracing(context.Background())
		return nil, nil, fmt.Errorf("creating %s backend: %w", c.cfg.Backend, err)
	}

	return b, func() {
		if err := b.Close(); err != nil {
			c.logger.Error("closing backend", "error", err)
		}

		if err := shutdownTracing(context.Background()); err != nil {
			c.logger.Error("shutting down tracing", "error", err)
		}
	}, nil
}
