// Package models holds the types shared by the scrape stages.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Category is the subject a bulletin table was classified as.
type Category string

const (
	HospitalStatistics Category = "hospital_statistics"
	Gender             Category = "gender"
	Age                Category = "age"
	Spread             Category = "spread"
	HealthcareWorkers  Category = "healthcare_workers"
	County             Category = "county"
	AgeHospital        Category = "age_hospital"
	Unknown            Category = "UNKNOWN"
)

// OutputCategories are the categories that end up in a dataset, in output order.
var OutputCategories = []Category{
	HospitalStatistics,
	Gender,
	Age,
	Spread,
	HealthcareWorkers,
	County,
}

// Routable reports whether tables of this category are accumulated.
func (c Category) Routable() bool {
	for _, o := range OutputCategories {
		if c == o {
			return true
		}
	}
	return false
}

// RawTable is a table as found in bulletin markup: rows of cell text with no
// column names.
type RawTable struct {
	Rows [][]string `json:"rows"`
}

// Cell returns the text at row, col or "" when the position does not exist.
func (t RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

type valueKind uint8

const (
	kindMissing valueKind = iota
	kindText
	kindNumber
)

// Value is a single normalized cell: missing, text or a float.
type Value struct {
	kind valueKind
	text string
	num  float64
}

// Missing returns the value of an empty or unparseable cell.
func Missing() Value { return Value{} }

// Text returns a text value. The empty string is text, not missing.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

func (v Value) IsMissing() bool { return v.kind == kindMissing }

// Float returns the numeric value, if any.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// String renders the value the way it appears in the CSV output. Integral
// floats keep a trailing ".0" so counts read 10234.0 like the historical files.
func (v Value) String() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindNumber:
		s := strconv.FormatFloat(v.num, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.text)
	case kindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Missing()
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	default:
		return fmt.Errorf("unsupported value %s", b)
	}
	return nil
}

// Schema names the three positional columns of a category.
type Schema struct {
	Label string `json:"label"`
	Count string `json:"count"`
	Share string `json:"share"`
}

var schemas = map[Category]Schema{
	HospitalStatistics: {"measure", "number", "pct"},
	Gender:             {"gender", "number", "pct"},
	Spread:             {"measure", "number", "pct"},
	HealthcareWorkers:  {"measure", "number", "pct"},
	County:             {"county", "metric", "pct"},
	Age:                {"age", "number", "pct"},
}

// SchemaFor returns the column schema of c. Categories that are never
// accumulated have none.
func SchemaFor(c Category) (Schema, bool) {
	s, ok := schemas[c]
	return s, ok
}

// Metadata column names attached to every normalized row.
const (
	ColumnTag           = "tag"
	ColumnPublishedDate = "published_date"
	ColumnSource        = "source"
)

// Columns returns the semantic columns followed by the metadata columns.
func (s Schema) Columns() []string {
	return []string{s.Label, s.Count, s.Share, ColumnTag, ColumnPublishedDate, ColumnSource}
}

// Provenance identifies the bulletin a table came from.
type Provenance struct {
	PublishedDate string `json:"publishedDate"`
	Source        string `json:"source"`
}

// Row is one normalized table row.
type Row struct {
	Label         Value    `json:"label"`
	Count         Value    `json:"count"`
	Share         Value    `json:"share"`
	Tag           Category `json:"tag"`
	PublishedDate string   `json:"publishedDate"`
	Source        string   `json:"source"`
}

// Values returns the row in Schema.Columns order.
func (r Row) Values() []Value {
	return []Value{
		r.Label,
		r.Count,
		r.Share,
		Text(string(r.Tag)),
		Text(r.PublishedDate),
		Text(r.Source),
	}
}

// Table is the normalized form of one RawTable.
type Table struct {
	Category Category   `json:"category"`
	Schema   Schema     `json:"schema"`
	Meta     Provenance `json:"meta"`
	Rows     []Row      `json:"rows"`
}

// Columns returns the column names of t, or nil for schema-less categories.
func (t Table) Columns() []string {
	if _, ok := SchemaFor(t.Category); !ok {
		return nil
	}
	return t.Schema.Columns()
}

type Classification struct {
	Label  Category `json:"label"`
	Reason string   `json:"reason,omitempty"`
}

// TableResult is what one bulletin table turned into.
type TableResult struct {
	Index          int            `json:"index"`
	Classification Classification `json:"class"`
	Table          Table          `json:"table"`
	Accumulated    bool           `json:"accumulated"`
}

// BulletinResult summarizes a processed bulletin.
type BulletinResult struct {
	SourceURL     string        `json:"sourceUrl"`
	FetchMs       int64         `json:"fetchMs,omitempty"`
	PublishedDate string        `json:"publishedDate"`
	Tables        []TableResult `json:"tables"`
}
