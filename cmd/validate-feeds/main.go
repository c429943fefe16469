package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/KonishchevDmitry/feedfix/internal/config"
	"github.com/KonishchevDmitry/feedfix/internal/job"
	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/internal/validate"
)

func main() {
	job.Main(job.Job{
		Name:  "validate-feeds",
		Usage: "Validate suggested feeds",
		Description: "Checks that every suggested feed responds with a well-formed RSS, Atom or RDF document\n" +
			"which has at least one item. Exits with 1 if any feed is invalid and with 2 if the file can't be read.\n\n" +
			"FEEDFIX_INPUT overrides the file location.",
		Action: func(ctx context.Context, config config.Config, registry *metrics.Registry) error {
			report, err := validate.Run(ctx, config.InputPath, registry, os.Stdout)
			if err != nil {
				var readErr *validate.ReadError
				if errors.As(err, &readErr) {
					return cli.Exit(err.Error(), 2)
				}
				return err
			}

			if report.Invalid != 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	})
}
