package feeds

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/mo"
)

const (
	titleKey = "title"
	urlKey   = "url"
)

// Entry is a suggested feed record. Title and URL are interpreted, all fields are kept in their original order and
// the ones which haven't been changed are written back byte-for-byte.
type Entry struct {
	Title mo.Option[string]
	URL   string

	keys   []string
	values map[string]json.RawMessage

	// Title and URL as they have been read
	title mo.Option[string]
	url   string
}

func NewEntry(title string, url string) *Entry {
	return &Entry{
		Title: mo.Some(title),
		URL:   url,
		keys:  []string{titleKey, urlKey},
	}
}

// Extra returns a raw value of the field as it has been read.
func (e *Entry) Extra(key string) (json.RawMessage, bool) {
	value, ok := e.values[key]
	return value, ok
}

// DisplayTitle returns the title the way it's shown in reports.
func (e *Entry) DisplayTitle() string {
	if title, ok := e.Title.Get(); ok {
		return title
	} else if value, ok := e.values[titleKey]; ok && !isNull(value) {
		return string(value)
	}
	return "None"
}

var _ json.Unmarshaler = &Entry{}

// UnmarshalJSON decodes the entry object. If a key is repeated, the last value wins, but the field keeps the position
// of its first occurrence.
func (e *Entry) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	if token, err := decoder.Token(); err != nil {
		return err
	} else if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.New("feed entry must be a JSON object")
	}

	*e = Entry{values: make(map[string]json.RawMessage)}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key := token.(string)

		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("invalid %q field value: %w", key, err)
		}

		if !slices.Contains(e.keys, key) {
			e.keys = append(e.keys, key)
		}
		e.values[key] = value

		switch key {
		case titleKey:
			title, err := decodeString(value)
			if err != nil {
				return fmt.Errorf("invalid %q field value: %w", key, err)
			}
			e.title = title

		case urlKey:
			url, err := decodeString(value)
			if err != nil {
				return fmt.Errorf("invalid %q field value: %w", key, err)
			}
			e.url = url.OrEmpty()
		}
	}

	if _, err := decoder.Token(); err != nil {
		return err
	}

	e.Title, e.URL = e.title, e.url
	return nil
}

var _ json.Marshaler = &Entry{}

func (e *Entry) MarshalJSON() ([]byte, error) {
	keys := slices.Clone(e.keys)
	if e.Title.IsPresent() && !slices.Contains(keys, titleKey) {
		keys = append(keys, titleKey)
	}
	if e.URL != "" && !slices.Contains(keys, urlKey) {
		keys = append(keys, urlKey)
	}

	var buffer bytes.Buffer
	buffer.WriteByte('{')

	count := 0
	for _, key := range keys {
		data, ok, err := e.marshalField(key)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q field: %w", key, err)
		} else if !ok {
			continue
		}

		name, err := marshalValue(key)
		if err != nil {
			return nil, err
		}

		if count != 0 {
			buffer.WriteByte(',')
		}
		buffer.Write(name)
		buffer.WriteByte(':')
		buffer.Write(data)
		count++
	}

	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func (e *Entry) marshalField(key string) ([]byte, bool, error) {
	raw, hasRaw := e.values[key]

	switch key {
	case titleKey:
		if title, ok := e.Title.Get(); ok && (!hasRaw || e.Title != e.title) {
			data, err := marshalValue(title)
			return data, err == nil, err
		} else if !ok && e.title.IsPresent() {
			return nil, false, nil
		}

	case urlKey:
		if e.URL != "" && (!hasRaw || e.URL != e.url) {
			data, err := marshalValue(e.URL)
			return data, err == nil, err
		} else if e.URL == "" && e.url != "" {
			return nil, false, nil
		}
	}

	return raw, hasRaw, nil
}

// decodeString returns the value if it's a string. Values of other types are kept raw and aren't interpreted.
func decodeString(value json.RawMessage) (mo.Option[string], error) {
	if len(value) == 0 || value[0] != '"' {
		return mo.None[string](), nil
	}

	var str string
	if err := json.Unmarshal(value, &str); err != nil {
		return mo.None[string](), err
	}

	return mo.Some(str), nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func marshalValue(value any) ([]byte, error) {
	var buffer bytes.Buffer

	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}
