package url

import (
	"fmt"
	"net/url"
	"strings"
)

func MustParse(value string) *url.URL {
	url, err := url.Parse(value)
	if err != nil {
		panic(fmt.Sprintf("Invalid URL: %s", value))
	}
	return url
}

// Resolve returns an absolute URL for the link found on the page with the specified base URL.
func Resolve(base *url.URL, link string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return nil, fmt.Errorf("got an invalid link: %q", link)
	}
	return base.ResolveReference(ref), nil
}
