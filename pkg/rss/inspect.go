package rss

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	ErrUnknownRoot = errors.New("root tag not recognized")
	ErrNoEntries   = errors.New("no item/entry elements found")
)

var (
	rootTags  = []string{"rss", "feed", "rdf"}
	entryTags = []string{"item", "entry"}
)

type SyntaxError struct {
	err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("XML parse error: %s", e.err)
}

func (e *SyntaxError) Unwrap() error {
	return e.err
}

type Structure struct {
	// Root is the namespace-stripped lower-cased name of the document element.
	Root    string
	Entries int
}

// Inspect parses the whole document and checks that it has a feed root element and at least one item or entry.
// Undeclared namespace prefixes are tolerated: only local names are matched.
func Inspect(data []byte) (*Structure, error) {
	structure, err := scan(data)
	if err != nil {
		return nil, &SyntaxError{err: err}
	}

	if !slices.Contains(rootTags, structure.Root) {
		return structure, fmt.Errorf("%w: %s", ErrUnknownRoot, structure.Root)
	}

	if structure.Entries == 0 {
		return structure, ErrNoEntries
	}

	return structure, nil
}

func scan(data []byte) (*Structure, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		structure Structure
		depth     int
		seenRoot  bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		switch token := token.(type) {
		case xml.StartElement:
			name := normalizeName(token.Name)
			if depth == 0 {
				if seenRoot {
					return nil, errors.New("junk after document element")
				}
				structure.Root, seenRoot = name, true
			}
			if slices.Contains(entryTags, name) {
				structure.Entries++
			}
			depth++

		case xml.EndElement:
			depth--

		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(token)) != 0 {
				return nil, errors.New("text outside of document element")
			}
		}
	}

	if !seenRoot {
		return nil, errors.New("no element found")
	}

	return &structure, nil
}

func normalizeName(name xml.Name) string {
	return strings.ToLower(name.Local)
}
