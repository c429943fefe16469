package query

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
)

// First returns the first element of the selection (in document order) which satisfies the predicate.
func First(selection *goquery.Selection, predicate func(selection *goquery.Selection) bool) mo.Option[*goquery.Selection] {
	var result mo.Option[*goquery.Selection]
	selection.EachWithBreak(func(i int, selection *goquery.Selection) bool {
		if predicate(selection) {
			result = mo.Some(selection)
			return false
		}
		return true
	})
	return result
}

// Attr returns a non-empty attribute value.
func Attr(selection *goquery.Selection, name string) (string, bool) {
	value, ok := selection.Attr(name)
	return value, ok && value != ""
}
