package rss

import (
	"bytes"
	"strings"
)

const (
	ContentType     = "application/rss+xml"
	AtomContentType = "application/atom+xml"
)

var feedMarkers = [][]byte{[]byte("<rss"), []byte("<feed"), []byte("<rdf:RDF")}

// LooksLikeFeed is a cheap check which tells whether the document is an RSS/Atom/RDF feed rather than an HTML page.
func LooksLikeFeed(data []byte) bool {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("<?xml")) {
		return true
	}

	for _, marker := range feedMarkers {
		if bytes.Contains(data, marker) {
			return true
		}
	}

	return false
}

// IsXMLContentType tells whether Content-Type header value looks like some kind of XML.
func IsXMLContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "xml") || strings.Contains(contentType, "rss")
}
