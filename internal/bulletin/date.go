package bulletin

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	publishedRe = regexp.MustCompile(`(?i)Published:([^\n]*)`)
	yearRe      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	dayRe       = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\b`)
)

var months = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// PublishedDate finds the "Published: <day> <Month> <year>" line of a
// bulletin and returns it as YYYY-MM-DD. It returns "" when there is no
// such line or its text does not hold a month name and a day.
func PublishedDate(doc string) string {
	text, year, ok := publishedText(doc)
	if !ok {
		return ""
	}
	date, _ := normalizeDate(text, year)
	return date
}

// publishedText returns the text between "Published:" and the first year
// on the same line, with markup removed, and the year. Markup is removed
// first so years inside attributes (datetime="...") are not picked up.
func publishedText(doc string) (string, int, bool) {
	for _, m := range publishedRe.FindAllStringSubmatch(doc, -1) {
		line := html.UnescapeString(tagRe.ReplaceAllString(m[1], " "))
		loc := yearRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		year, _ := strconv.Atoi(line[loc[2]:loc[3]])
		return strings.Join(strings.Fields(line[:loc[0]]), " "), year, true
	}
	return "", 0, false
}

func normalizeDate(text string, year int) (string, bool) {
	lower := strings.ToLower(text)
	for i, name := range months {
		idx := strings.Index(lower, name)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(lower[:idx] + " " + lower[idx+len(name):])
		d := dayRe.FindStringSubmatch(rest)
		if d == nil {
			return "", false
		}
		day, _ := strconv.Atoi(d[1])
		if day < 1 || day > 31 {
			return "", false
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, i+1, day), true
	}
	return "", false
}
