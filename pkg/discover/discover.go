package discover

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"golang.org/x/net/html/charset"

	"github.com/KonishchevDmitry/feedfix/pkg/query"
	"github.com/KonishchevDmitry/feedfix/pkg/rss"
	urlutil "github.com/KonishchevDmitry/feedfix/pkg/url"
)

var feedTypes = []string{rss.ContentType, rss.AtomContentType}

// FeedLink looks for <link rel="alternate"> tag with RSS or Atom type and returns its href resolved against the page
// URL. The first matching tag in document order wins.
func FeedLink(ctx context.Context, data []byte, pageURL *url.URL) mo.Option[*url.URL] {
	doc, err := Parse(ctx, data, pageURL)
	if err != nil {
		logging.L(ctx).Debugf("Failed to parse %s as HTML: %s.", pageURL, err)
		return mo.None[*url.URL]()
	}

	link, ok := query.First(doc.Find("link"), isFeedLink).Get()
	if !ok {
		return mo.None[*url.URL]()
	}

	href, _ := query.Attr(link, "href")
	feedURL, err := urlutil.Resolve(pageURL, href)
	if err != nil {
		logging.L(ctx).Debugf("%s has an invalid feed link: %s.", pageURL, err)
		return mo.None[*url.URL]()
	}

	return mo.Some(feedURL)
}

func isFeedLink(link *goquery.Selection) bool {
	if rel, _ := link.Attr("rel"); !strings.EqualFold(strings.TrimSpace(rel), "alternate") {
		return false
	}

	if _, ok := query.Attr(link, "href"); !ok {
		return false
	}

	linkType, _ := link.Attr("type")
	linkType = strings.ToLower(linkType)

	for _, feedType := range feedTypes {
		if strings.Contains(linkType, feedType) {
			return true
		}
	}

	return false
}

// Parse parses the HTML document honoring the charset declared in its <meta> tags. <meta charset> takes precedence over
// <meta http-equiv="Content-Type">.
func Parse(ctx context.Context, data []byte, pageURL *url.URL) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	label, ok := declaredCharset(ctx, doc, pageURL).Get()
	if !ok {
		return doc, nil
	}

	encoding, name := charset.Lookup(label)
	if encoding == nil {
		return nil, fmt.Errorf("the document has an unknown charset encoding: %q", label)
	} else if name == "utf-8" {
		return doc, nil
	}

	return goquery.NewDocumentFromReader(encoding.NewDecoder().Reader(bytes.NewReader(data)))
}

func declaredCharset(ctx context.Context, doc *goquery.Document, pageURL *url.URL) mo.Option[string] {
	metas := doc.Find("head > meta")

	if meta, ok := query.First(metas, func(meta *goquery.Selection) bool {
		_, ok := query.Attr(meta, "charset")
		return ok
	}).Get(); ok {
		label, _ := meta.Attr("charset")
		return mo.Some(strings.TrimSpace(label))
	}

	var label mo.Option[string]
	query.First(metas, func(meta *goquery.Selection) bool {
		if equiv, _ := meta.Attr("http-equiv"); !strings.EqualFold(equiv, "content-type") {
			return false
		}

		content, _ := meta.Attr("content")
		_, params, err := mime.ParseMediaType(content)
		if err != nil {
			logging.L(ctx).Debugf(
				`Got an invalid content type of %s from <meta http-equiv="Content-Type"> tag: %q.`, pageURL, content)
			return false
		}

		if encoding := params["charset"]; encoding != "" {
			label = mo.Some(encoding)
			return true
		}
		return false
	})

	return label
}
