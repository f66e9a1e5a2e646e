// Package normalizer maps classified bulletin tables onto their category
// schema.
package normalizer

import (
	"math"
	"strconv"
	"strings"

	"govie-covid-scraper/internal/models"
)

// Header and artifact values dropped per column, before coercion.
var (
	numberArtifacts = map[string]struct{}{"Number of people": {}, "Number": {}, "% known": {}}
	metricArtifacts = map[string]struct{}{"Number of cases": {}}
	pctArtifacts    = map[string]struct{}{"% of total": {}}
)

// row holds the three positional cells before coercion.
type row struct {
	label, count, share string
}

// Normalize renames the first three columns of raw to the category schema,
// filters header rows, coerces counts and percentages, and attaches meta.
// Columns past the third are ignored. Categories without a schema produce
// a table with no rows.
func Normalize(raw models.RawTable, cat models.Category, meta models.Provenance) models.Table {
	out := models.Table{Category: cat, Meta: meta, Rows: []models.Row{}}
	schema, ok := models.SchemaFor(cat)
	if !ok {
		return out
	}
	out.Schema = schema

	for i := range raw.Rows {
		r := row{
			label: raw.Cell(i, 0),
			count: raw.Cell(i, 1),
			share: raw.Cell(i, 2),
		}
		if cat == models.Spread && strings.Contains(r.count, "%") {
			r.share = r.count
		}
		if dropped(schema, r) {
			continue
		}
		out.Rows = append(out.Rows, models.Row{
			Label:         text(r.label),
			Count:         coerceCount(schema, r.count),
			Share:         Percent(r.share),
			Tag:           cat,
			PublishedDate: meta.PublishedDate,
			Source:        meta.Source,
		})
	}
	return out
}

func dropped(schema models.Schema, r row) bool {
	switch schema.Count {
	case "number":
		if _, ok := numberArtifacts[r.count]; ok {
			return true
		}
	case "metric":
		if _, ok := metricArtifacts[r.count]; ok {
			return true
		}
	}
	_, ok := pctArtifacts[r.share]
	return ok
}

func coerceCount(schema models.Schema, cell string) models.Value {
	if schema.Count == "metric" {
		return text(stripThousands(cell))
	}
	return Count(cell)
}

// Count parses a number cell. Cells holding a percent sign are percentages
// that slipped into the wrong column and count as missing.
func Count(cell string) models.Value {
	if strings.Contains(cell, "%") {
		return models.Missing()
	}
	return parseFloat(cell)
}

// Percent parses a percentage cell as a fraction: "45%" is 0.45.
func Percent(cell string) models.Value {
	v := parseFloat(strings.ReplaceAll(cell, "%", ""))
	if f, ok := v.Float(); ok {
		return models.Number(f / 100)
	}
	return v
}

func parseFloat(cell string) models.Value {
	s := stripThousands(cell)
	if s == "" {
		return models.Missing()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Missing()
	}
	return models.Number(f)
}

// stripThousands trims the cell and drops thousands separators from
// numeric-looking text.
func stripThousands(cell string) string {
	s := strings.TrimSpace(cell)
	if s == "" {
		return s
	}
	plain := strings.ReplaceAll(s, ",", "")
	if _, err := strconv.ParseFloat(plain, 64); err != nil {
		return s
	}
	return plain
}

func text(cell string) models.Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return models.Missing()
	}
	return models.Text(s)
}
