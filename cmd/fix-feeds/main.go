package main

import (
	"context"

	"github.com/KonishchevDmitry/feedfix/internal/config"
	"github.com/KonishchevDmitry/feedfix/internal/job"
	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/internal/repair"
)

func main() {
	job.Main(job.Job{
		Name:  "fix-feeds",
		Usage: "Check suggested feeds and fix their URLs",
		Description: "Fetches every suggested feed, follows redirects and discovers feed links on HTML pages.\n" +
			"Dead feeds are dropped. The result is written to a separate file leaving the input intact.\n\n" +
			"FEEDFIX_INPUT and FEEDFIX_OUTPUT override the file locations.",
		Action: func(ctx context.Context, config config.Config, registry *metrics.Registry) error {
			return repair.Run(ctx, config.InputPath, config.OutputPath, registry)
		},
	})
}
