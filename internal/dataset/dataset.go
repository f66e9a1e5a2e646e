// Package dataset accumulates normalized tables into one growing dataset
// per output category.
package dataset

import (
	"govie-covid-scraper/internal/models"
)

// Dataset is the accumulated rows of one category. Columns are kept in
// first-seen order; a row lacking a column holds a missing value there.
// Once pruned, a column stays out: the column set only shrinks.
type Dataset struct {
	category models.Category
	columns  []string
	index    map[string]int
	pruned   map[string]bool
	rows     []map[string]models.Value
}

// New returns an empty dataset for c.
func New(c models.Category) *Dataset {
	return &Dataset{category: c, index: map[string]int{}, pruned: map[string]bool{}}
}

func (d *Dataset) Category() models.Category { return d.category }
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the current column names.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Append adds the rows of t and then prunes columns that are empty across
// the whole dataset. Values for previously pruned columns are dropped. A
// table without rows changes nothing.
func (d *Dataset) Append(t models.Table) {
	if len(t.Rows) == 0 {
		return
	}
	cols := t.Columns()
	for _, c := range cols {
		d.addColumn(c)
	}
	for _, r := range t.Rows {
		values := r.Values()
		rec := make(map[string]models.Value, len(cols))
		for i, c := range cols {
			if d.pruned[c] {
				continue
			}
			rec[c] = values[i]
		}
		d.rows = append(d.rows, rec)
	}
	d.PruneEmptyColumns()
}

func (d *Dataset) addColumn(c string) {
	if _, ok := d.index[c]; ok || d.pruned[c] {
		return
	}
	d.index[c] = len(d.columns)
	d.columns = append(d.columns, c)
}

// PruneEmptyColumns drops every column with no non-missing value in any
// row. A column that holds at least one value is never removed. Pruning an
// empty dataset is a no-op.
func (d *Dataset) PruneEmptyColumns() {
	if len(d.rows) == 0 {
		return
	}
	kept := d.columns[:0]
	for _, c := range d.columns {
		if d.hasValue(c) {
			kept = append(kept, c)
			continue
		}
		d.pruned[c] = true
		for _, rec := range d.rows {
			delete(rec, c)
		}
	}
	d.columns = kept
	d.index = make(map[string]int, len(kept))
	for i, c := range kept {
		d.index[c] = i
	}
}

func (d *Dataset) hasValue(c string) bool {
	for _, rec := range d.rows {
		if v, ok := rec[c]; ok && !v.IsMissing() {
			return true
		}
	}
	return false
}

// Records returns the rows in Columns order.
func (d *Dataset) Records() [][]models.Value {
	out := make([][]models.Value, len(d.rows))
	for i, rec := range d.rows {
		row := make([]models.Value, len(d.columns))
		for j, c := range d.columns {
			row[j] = rec[c]
		}
		out[i] = row
	}
	return out
}

// Maps returns each row as column name to value, for JSON export.
func (d *Dataset) Maps() []map[string]models.Value {
	out := make([]map[string]models.Value, len(d.rows))
	for i, rec := range d.rows {
		m := make(map[string]models.Value, len(d.columns))
		for _, c := range d.columns {
			m[c] = rec[c]
		}
		out[i] = m
	}
	return out
}

// Accumulator owns one Dataset per output category.
type Accumulator struct {
	sets map[models.Category]*Dataset
}

// NewAccumulator returns an accumulator holding an empty dataset for every
// output category.
func NewAccumulator() *Accumulator {
	a := &Accumulator{sets: map[models.Category]*Dataset{}}
	for _, c := range models.OutputCategories {
		a.sets[c] = New(c)
	}
	return a
}

// Add routes t to the dataset of its category. Tables of any other
// category are ignored and Add reports false.
func (a *Accumulator) Add(t models.Table) bool {
	d, ok := a.sets[t.Category]
	if !ok {
		return false
	}
	d.Append(t)
	return true
}

// Dataset returns the dataset of c, if c is an output category.
func (a *Accumulator) Dataset(c models.Category) (*Dataset, bool) {
	d, ok := a.sets[c]
	return d, ok
}

// Datasets returns every dataset in output order.
func (a *Accumulator) Datasets() []*Dataset {
	out := make([]*Dataset, 0, len(models.OutputCategories))
	for _, c := range models.OutputCategories {
		out = append(out, a.sets[c])
	}
	return out
}
