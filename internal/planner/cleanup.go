package planner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTMLBreaks turns text that went through an nl2br/htmlspecialchars pass
// back into plain markdown. Other text is returned untouched.
func stripHTMLBreaks(s string) string {
	if !strings.Contains(s, "<br") && !strings.Contains(s, "&amp;") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("br").Remove()
	return doc.Find("body").Text()
}
