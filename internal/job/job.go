package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/urfave/cli/v2"

	"github.com/KonishchevDmitry/feedfix/internal/config"
	"github.com/KonishchevDmitry/feedfix/internal/logs"
	"github.com/KonishchevDmitry/feedfix/internal/metrics"
)

type Job struct {
	Name        string
	Usage       string
	Description string
	Action      func(ctx context.Context, config config.Config, registry *metrics.Registry) error
}

// Main runs the job as a command line tool and exits with its status. The tools take no arguments: all
// configuration comes from environment.
func Main(job Job) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := App(job).RunContext(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s.\n", err)
		stop()
		os.Exit(1)
	}
}

func App(job Job) *cli.App {
	return &cli.App{
		Name:        job.Name,
		Usage:       job.Usage,
		Description: job.Description,
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return cli.Exit(fmt.Sprintf("Invalid arguments: %s. The tool takes no arguments.", c.Args().Slice()), 2)
			}
			return run(c.Context, job)
		},
	}
}

func run(ctx context.Context, job Job) error {
	config := config.Load()

	ctx, sync, err := logs.WithLogger(ctx, config.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize the logger: %w", err)
	}
	defer sync()

	registry := metrics.New(job.Name)
	err = job.Action(ctx, config, registry)
	registry.Finish(ctx, config.MetricsPath, err == nil)

	if err == nil {
		return nil
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if message := exitErr.Error(); message != "" {
			logging.L(ctx).Error(message)
		}
		return cli.Exit("", exitErr.ExitCode())
	}

	logging.L(ctx).Errorf("%s.", err)
	return cli.Exit("", 1)
}
