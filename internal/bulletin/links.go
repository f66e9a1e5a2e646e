// Package bulletin finds press-release bulletins on the listing page and
// reads their publication date.
package bulletin

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"govie-covid-scraper/internal/parser"
)

const (
	pressReleaseMarker = "/en/press-release/"
	relativePrefix     = "/en/"
)

// PressReleaseLinks keeps the hrefs that point at press releases. Hrefs
// starting with /en/ are joined to base; everything else is kept as is.
// Order and duplicates are preserved.
func PressReleaseLinks(hrefs []string, base string) []string {
	base = strings.TrimRight(base, "/")
	links := []string{}
	for _, href := range hrefs {
		if !strings.Contains(href, pressReleaseMarker) {
			continue
		}
		if strings.HasPrefix(href, relativePrefix) {
			links = append(links, base+href)
		} else {
			links = append(links, href)
		}
	}
	return links
}

// PressReleaseLinksFromHTML parses a listing page and returns its
// press-release links.
func PressReleaseLinksFromHTML(r io.Reader, base string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return PressReleaseLinks(parser.Hrefs(doc), base), nil
}
