package patch

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type rulesFile struct {
	Rules []ruleConfig `toml:"rules"`
}

type ruleConfig struct {
	Name     string `toml:"name"`
	Host     string `toml:"host"`
	Pattern  string `toml:"pattern"`
	Template string `toml:"template"`
}

// LoadRules reads additional rewrite rules from a TOML file:
//
//	[[rules]]
//	name = "IOPscience"
//	host = "iopscience.iop.org"
//	pattern = 'iopscience\.iop\.org/([0-9]{4}-[0-9]{4})'
//	template = "https://iopscience.iop.org/journal/rss/%s"
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var config rulesFile
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	rules := make([]Rule, 0, len(config.Rules))
	for index, entry := range config.Rules {
		rule, err := entry.compile()
		if err != nil {
			return nil, fmt.Errorf("invalid rule #%d in %s: %w", index+1, path, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func (c *ruleConfig) compile() (Rule, error) {
	if c.Name == "" {
		return Rule{}, errors.New("name is missing")
	} else if c.Host == "" {
		return Rule{}, errors.New("host is missing")
	} else if strings.Count(c.Template, "%s") != 1 {
		return Rule{}, fmt.Errorf("template must contain exactly one %%s: %q", c.Template)
	}

	pattern, err := regexp.Compile(c.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern: %w", err)
	} else if pattern.NumSubexp() < 1 {
		return Rule{}, fmt.Errorf("pattern must capture the identifier: %q", c.Pattern)
	}

	return Rule{
		Name:     c.Name,
		Host:     c.Host,
		Pattern:  pattern,
		Template: c.Template,
	}, nil
}
