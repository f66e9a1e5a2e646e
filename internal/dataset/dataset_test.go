package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govie-covid-scraper/internal/models"
)

func table(cat models.Category, date string, rows ...models.Row) models.Table {
	schema, _ := models.SchemaFor(cat)
	meta := models.Provenance{PublishedDate: date, Source: "https://www.gov.ie/en/press-release/" + date + "/"}
	for i := range rows {
		rows[i].Tag = cat
		rows[i].PublishedDate = meta.PublishedDate
		rows[i].Source = meta.Source
	}
	return models.Table{Category: cat, Schema: schema, Meta: meta, Rows: rows}
}

func asStrings(d *Dataset) [][]string {
	var out [][]string
	for _, rec := range d.Records() {
		row := make([]string, len(rec))
		for i, v := range rec {
			row[i] = v.String()
		}
		out = append(out, row)
	}
	return out
}

func TestAppendAndPrune(t *testing.T) {
	d := New(models.Gender)
	d.Append(table(models.Gender, "2020-04-05",
		models.Row{Label: models.Text("Female"), Count: models.Number(1200), Share: models.Missing()},
		models.Row{Label: models.Text("Male"), Count: models.Number(1100), Share: models.Missing()},
	))

	// pct is empty everywhere so far
	assert.Equal(t, []string{"gender", "number", "tag", "published_date", "source"}, d.Columns())

	d.Append(table(models.Gender, "2020-04-06",
		models.Row{Label: models.Text("Female"), Count: models.Number(1300), Share: models.Number(0.52)},
	))
	// pruned columns stay out even when later rows hold values
	assert.Equal(t, []string{"gender", "number", "tag", "published_date", "source"}, d.Columns())

	want := [][]string{
		{"Female", "1200.0", "gender", "2020-04-05", "https://www.gov.ie/en/press-release/2020-04-05/"},
		{"Male", "1100.0", "gender", "2020-04-05", "https://www.gov.ie/en/press-release/2020-04-05/"},
		{"Female", "1300.0", "gender", "2020-04-06", "https://www.gov.ie/en/press-release/2020-04-06/"},
	}
	if diff := cmp.Diff(want, asStrings(d)); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	_, ok := d.Maps()[2]["pct"]
	assert.False(t, ok)
}

func TestColumnSetOnlyShrinks(t *testing.T) {
	d := New(models.HospitalStatistics)
	full := models.Row{Label: models.Text("Number of cases"), Count: models.Number(10), Share: models.Number(1)}
	d.Append(table(models.HospitalStatistics, "2020-04-05", full))
	require.Len(t, d.Columns(), 6)

	d.Append(table(models.HospitalStatistics, "2020-04-06",
		models.Row{Label: models.Text("Number of cases"), Count: models.Number(11), Share: models.Missing()},
	))
	assert.Len(t, d.Columns(), 6)

	prev := d.Columns()
	for i := 0; i < 3; i++ {
		d.Append(table(models.HospitalStatistics, "2020-04-07", full))
		assert.Subset(t, prev, d.Columns())
		prev = d.Columns()
	}
}

func TestEmptyAppendDoesNotPrune(t *testing.T) {
	d := New(models.Gender)
	d.Append(table(models.Gender, "2020-04-05"))
	d.Append(table(models.Gender, "2020-04-06",
		models.Row{Label: models.Text("Female"), Count: models.Number(1200), Share: models.Number(0.52)},
	))
	assert.Equal(t, []string{"gender", "number", "pct", "tag", "published_date", "source"}, d.Columns())
}

func TestPruneKeepsColumnsWithAnyValue(t *testing.T) {
	d := New(models.Age)
	d.Append(table(models.Age, "2020-04-05",
		models.Row{Label: models.Text("<1"), Count: models.Number(9), Share: models.Number(0.01)},
	))
	d.Append(table(models.Age, "2020-04-06",
		models.Row{Label: models.Text("<1"), Count: models.Missing(), Share: models.Missing()},
	))
	assert.Equal(t, []string{"age", "number", "pct", "tag", "published_date", "source"}, d.Columns())
	assert.Equal(t, 2, d.Len())

	d.PruneEmptyColumns()
	assert.Len(t, d.Columns(), 6)
}

func TestEmptyPublishedDateIsNotMissing(t *testing.T) {
	d := New(models.County)
	d.Append(table(models.County, "",
		models.Row{Label: models.Text("Dublin"), Count: models.Text("2814"), Share: models.Missing()},
	))
	assert.Contains(t, d.Columns(), models.ColumnPublishedDate)
	assert.NotContains(t, d.Columns(), "pct")
}

func TestAppendEmptyTable(t *testing.T) {
	d := New(models.Spread)
	d.Append(table(models.Spread, "2020-04-05"))
	assert.Empty(t, d.Columns())
	assert.Zero(t, d.Len())
}

func TestAccumulatorRouting(t *testing.T) {
	acc := NewAccumulator()
	row := models.Row{Label: models.Text("x"), Count: models.Number(1), Share: models.Number(0.1)}

	for _, c := range models.OutputCategories {
		require.True(t, acc.Add(table(c, "2020-04-05", row)), c)
	}
	assert.False(t, acc.Add(models.Table{Category: models.AgeHospital, Rows: []models.Row{{Tag: models.AgeHospital}}}))
	assert.False(t, acc.Add(models.Table{Category: models.Unknown}))

	sets := acc.Datasets()
	require.Len(t, sets, 6)
	for i, d := range sets {
		assert.Equal(t, models.OutputCategories[i], d.Category())
		assert.Equal(t, 1, d.Len())
	}
	_, ok := acc.Dataset(models.AgeHospital)
	assert.False(t, ok)
}

func TestMaps(t *testing.T) {
	d := New(models.HospitalStatistics)
	d.Append(table(models.HospitalStatistics, "2020-04-05",
		models.Row{Label: models.Text("Number of cases"), Count: models.Number(10234), Share: models.Number(1)},
	))
	m := d.Maps()
	require.Len(t, m, 1)
	assert.Equal(t, "10234.0", m[0]["number"].String())
	assert.Equal(t, "hospital_statistics", m[0]["tag"].String())
}
