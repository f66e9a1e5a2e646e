
package parser

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"govie-covid-scraper/internal/models"
)

// Page is a decoded bulletin or listing page.
type Page struct {
	HTML   string
	Title  string
	Hrefs  []string
	Tables []models.RawTable
}

type Parser struct{}

func New() *Parser { return &Parser{} }

var whitespaceRe = regexp.MustCompile(`\s+`)

// Decode converts the document to UTF-8 using the content type and any
// <meta charset> hints.
func Decode(data []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}
	return utf8data, nil
}

func (p *Parser) Extract(r io.Reader, contentType string) (Page, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return Page{}, err
	}
	return p.ExtractBytes(buf.Bytes(), contentType)
}

func (p *Parser) ExtractBytes(data []byte, contentType string) (Page, error) {
	utf8data, err := Decode(data, contentType)
	if err != nil {
		return Page{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return Page{}, err
	}

	page := Page{
		HTML:  string(utf8data),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Hrefs: Hrefs(doc),
	}

	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	page.Tables = Tables(doc)
	return page, nil
}

// Hrefs returns the href of every anchor in document order.
func Hrefs(doc *goquery.Document) []string {
	var out []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			out = append(out, href)
		}
	})
	return out
}

// Tables returns every <table> in the document as a RawTable. Header and
// body rows are treated alike; cells spanning several columns or rows are
// repeated into every position they cover.
func Tables(doc *goquery.Document) []models.RawTable {
	var out []models.RawTable
	doc.Find("table").Each(func(i int, tbl *goquery.Selection) {
		out = append(out, table(tbl))
	})
	return out
}

type pending struct {
	text string
	left int
}

func table(tbl *goquery.Selection) models.RawTable {
	var rows [][]string
	// column -> cell still covering following rows
	carry := map[int]*pending{}

	tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// skip rows of nested tables
		if tr.Closest("table").Get(0) != tbl.Get(0) {
			return
		}
		var row []string
		col := 0
		fill := func() {
			for {
				p, ok := carry[col]
				if !ok {
					return
				}
				row = append(row, p.text)
				p.left--
				if p.left == 0 {
					delete(carry, col)
				}
				col++
			}
		}
		tr.ChildrenFiltered("th,td").Each(func(j int, cell *goquery.Selection) {
			fill()
			text := cellText(cell)
			colspan := span(cell, "colspan", maxColspan)
			rowspan := span(cell, "rowspan", maxRowspan)
			for k := 0; k < colspan; k++ {
				row = append(row, text)
				if rowspan > 1 {
					carry[col] = &pending{text: text, left: rowspan - 1}
				}
				col++
			}
		})
		fill()
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return models.RawTable{Rows: rows}
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s.Text(), " "))
}

// Span limits of the HTML table model. Larger values are clamped.
const (
	maxColspan = 1000
	maxRowspan = 65534
)

func span(s *goquery.Selection, attr string, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.AttrOr(attr, "1")))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, limit)
}
