package main

import (
	"context"
	"slices"

	"github.com/KonishchevDmitry/feedfix/internal/config"
	"github.com/KonishchevDmitry/feedfix/internal/job"
	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/internal/patch"
)

func main() {
	job.Main(job.Job{
		Name:  "fix-iop-feeds",
		Usage: "Rewrite IOPscience journal URLs to their RSS feeds",
		Description: "Rewrites IOPscience journal URLs of suggested feeds to canonical RSS feed URLs in place.\n\n" +
			"FEEDFIX_INPUT overrides the file location. FEEDFIX_RULES may point to a TOML file with\n" +
			"additional rewrite rules which are tried after the built-in ones.",
		Action: func(ctx context.Context, config config.Config, registry *metrics.Registry) error {
			rules := slices.Clone(patch.DefaultRules)

			if path, ok := config.RulesPath.Get(); ok {
				extra, err := patch.LoadRules(path)
				if err != nil {
					return err
				}
				rules = append(rules, extra...)
			}

			_, err := patch.Run(ctx, config.InputPath, rules)
			return err
		},
	})
}
