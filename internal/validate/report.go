package validate

import (
	"fmt"
	"io"
	"strings"
)

type Failure struct {
	Title  string
	URL    string
	Reason string
}

type Report struct {
	Total    int
	Valid    int
	Invalid  int
	Failures []Failure
}

func (r *Report) Add(title string, url string, result Result) {
	r.Total++
	if result.OK {
		r.Valid++
		return
	}

	r.Invalid++
	r.Failures = append(r.Failures, Failure{
		Title:  title,
		URL:    url,
		Reason: result.Reason,
	})
}

func (r *Report) Write(writer io.Writer) error {
	var buf strings.Builder

	fmt.Fprintf(&buf, "\nSummary:\n")
	fmt.Fprintf(&buf, "  Total: %d\n", r.Total)
	fmt.Fprintf(&buf, "  Valid: %d\n", r.Valid)
	fmt.Fprintf(&buf, "  Invalid: %d\n", r.Invalid)

	if len(r.Failures) != 0 {
		fmt.Fprintf(&buf, "\nInvalid feeds:\n")
		for _, failure := range r.Failures {
			fmt.Fprintf(&buf, " - %s: %s -> %s\n", failure.Title, failure.URL, failure.Reason)
		}
	} else {
		fmt.Fprintf(&buf, "All suggested feeds look valid\n")
	}

	_, err := io.WriteString(writer, buf.String())
	return err
}
