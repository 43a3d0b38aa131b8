package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/cschleiden/swf-workers/activity"
	"github.com/cschleiden/swf-workers/client"
	"github.com/cschleiden/swf-workers/internal/config"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/worker"
)

func (c *cli) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll and process activity and decision tasks until interrupted",
		RunE:  c.run,
	}
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, cleanup, err := c.setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	w := worker.New(b, activity.NewDelayActivity(clock.New()), c.cfg.WorkerOptions())
	if err := w.Start(ctx); err != nil {
		return err
	}

	c.logger.Info("worker started",
		log.BackendKey, c.cfg.Backend,
		log.DomainKey, c.cfg.SWF.Domain,
		log.TaskListKey, c.cfg.SWF.TaskList.Name)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case s := <-sigc:
		c.logger.Info("stopping worker", "signal", s.String())
	case <-w.Activities().Done():
	case <-w.Decisions().Done():
	}

	w.Stop()

	// A loop that died on its own makes the process exit non-zero
	return w.WaitForCompletion()
}

func (c *cli) startCommand() *cobra.Command {
	var (
		workflowID string
		input      string
		wait       bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a workflow execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, cleanup, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			wc := client.New(b)

			execution, err := wc.StartWorkflowExecution(ctx, client.StartOptions{
				Domain:       c.cfg.WorkerOptions().Domain,
				WorkflowID:   workflowID,
				WorkflowType: c.cfg.WorkflowType(),
				TaskList:     c.cfg.WorkerOptions().TaskList,
				Input:        input,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "started %s\n", execution)

			if !wait {
				return nil
			}

			result, err := wc.GetWorkflowResult(ctx, c.cfg.WorkerOptions().Domain, execution, timeout)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)

			return nil
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "workflow id, defaults to a random id")
	cmd.Flags().StringVar(&input, "input", "", "workflow input")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the result of the execution")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the result")

	return cmd
}

// localDefaults lets the local command run without any configuration.
var localDefaults = map[string]string{
	"swf.domain":           "local",
	"swf.tasklist.name":    "swf-worker",
	"swf.activity.name":    "DelayActivity",
	"swf.activity.version": "1.0",
	"swf.workflow.type":    "DelayWorkflow",
}

func (c *cli) localCommand() *cobra.Command {
	var (
		input   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run one workflow execution against the in-memory backend and print its result",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.v.Set("backend", string(config.BackendMemory))

			for k, v := range localDefaults {
				c.v.SetDefault(k, v)
			}

			return c.setupConfig(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			b, cleanup, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			options := c.cfg.WorkerOptions()

			w := worker.New(b, activity.NewDelayActivity(clock.New()), options)
			if err := w.Start(ctx); err != nil {
				return err
			}

			wc := client.New(b)

			execution, err := wc.StartWorkflowExecution(ctx, client.StartOptions{
				Domain:       options.Domain,
				WorkflowType: c.cfg.WorkflowType(),
				TaskList:     options.TaskList,
				Input:        input,
			})
			if err != nil {
				return err
			}

			result, err := wc.GetWorkflowResult(ctx, options.Domain, execution, timeout)

			cancel()
			if werr := w.WaitForCompletion(); werr != nil {
				c.logger.Error("worker did not stop cleanly", "error", werr)
			}

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)

			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", `{"delay":"5"}`, "workflow input")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "how long to wait for the result")

	return cmd
}
