package patch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/samber/mo"

	"github.com/KonishchevDmitry/feedfix/pkg/feeds"
)

// Rule rewrites URLs of a single provider to its canonical feed URL.
type Rule struct {
	Name string

	// A substring which must be present in URL for the rule to be tried
	Host string

	// The first group must capture the identifier which is passed to Template
	Pattern  *regexp.Regexp
	Template string
}

var IOPScience = Rule{
	Name:     "IOPscience",
	Host:     "iopscience.iop.org",
	Pattern:  regexp.MustCompile(`iopscience\.iop\.org/([0-9]{4}-[0-9]{4})`),
	Template: "https://iopscience.iop.org/journal/rss/%s",
}

var DefaultRules = []Rule{IOPScience}

func (r *Rule) Rewrite(url string) mo.Option[string] {
	if !strings.Contains(url, r.Host) {
		return mo.None[string]()
	}

	match := r.Pattern.FindStringSubmatch(url)
	if len(match) < 2 || match[1] == "" {
		return mo.None[string]()
	}

	return mo.Some(fmt.Sprintf(r.Template, match[1]))
}

type Change struct {
	Title string
	Rule  string
	From  string
	To    string
}

// Apply rewrites entry URLs in place. The first matching rule wins. Already canonical URLs are left as is, so the
// operation is idempotent.
func Apply(ctx context.Context, entries []*feeds.Entry, rules []Rule) []Change {
	var changes []Change

	for _, entry := range entries {
		for _, rule := range rules {
			url, ok := rule.Rewrite(entry.URL).Get()
			if !ok {
				continue
			}

			if url != entry.URL {
				change := Change{
					Title: entry.DisplayTitle(),
					Rule:  rule.Name,
					From:  entry.URL,
					To:    url,
				}
				logging.L(ctx).Infof("Fixing %s: %s -> %s", change.Title, change.From, change.To)

				entry.URL = url
				changes = append(changes, change)
			}

			break
		}
	}

	return changes
}
