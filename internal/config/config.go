package config

import (
	"os"

	"github.com/samber/mo"
)

const (
	DefaultInputPath  = "app/src/main/assets/suggested_feeds.json"
	DefaultOutputPath = "app/src/main/assets/suggested_feeds_fixed.json"
)

// Config holds file locations. The tools take no command line arguments, so defaults may be overridden only via
// environment.
type Config struct {
	InputPath   string
	OutputPath  string
	RulesPath   mo.Option[string]
	MetricsPath mo.Option[string]
	Debug       bool
}

func Load() Config {
	return load(os.LookupEnv)
}

func load(lookup func(name string) (string, bool)) Config {
	get := func(name string) mo.Option[string] {
		if value, ok := lookup(name); ok && value != "" {
			return mo.Some(value)
		}
		return mo.None[string]()
	}

	return Config{
		InputPath:   get("FEEDFIX_INPUT").OrElse(DefaultInputPath),
		OutputPath:  get("FEEDFIX_OUTPUT").OrElse(DefaultOutputPath),
		RulesPath:   get("FEEDFIX_RULES"),
		MetricsPath: get("FEEDFIX_METRICS_FILE"),
		Debug:       get("FEEDFIX_DEBUG").IsPresent(),
	}
}
