package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govie-covid-scraper/internal/classifier"
	"govie-covid-scraper/internal/models"
)

var meta = models.Provenance{
	PublishedDate: "2020-04-05",
	Source:        "https://www.gov.ie/en/press-release/abc-123/",
}

func raw(rows ...[]string) models.RawTable { return models.RawTable{Rows: rows} }

func number(t *testing.T, v models.Value) float64 {
	t.Helper()
	f, ok := v.Float()
	require.True(t, ok, "expected a number, got %q", v.String())
	return f
}

func TestNormalizeHospitalStatistics(t *testing.T) {
	table := raw(
		[]string{"Total number of cases", "", ""},
		[]string{"Number of cases", "10234", "100%"},
		[]string{"Number of cases", "Number", "% of total"},
	)
	cat := classifier.New().Classify(table)
	require.Equal(t, models.HospitalStatistics, cat)

	out := Normalize(table, cat, meta)
	assert.Equal(t, []string{"measure", "number", "pct", "tag", "published_date", "source"}, out.Columns())
	require.Len(t, out.Rows, 2)

	// the marker row survives with missing values
	assert.Equal(t, "Total number of cases", out.Rows[0].Label.String())
	assert.True(t, out.Rows[0].Count.IsMissing())
	assert.True(t, out.Rows[0].Share.IsMissing())

	r := out.Rows[1]
	assert.Equal(t, "Number of cases", r.Label.String())
	assert.Equal(t, 10234.0, number(t, r.Count))
	assert.Equal(t, 1.0, number(t, r.Share))
	assert.Equal(t, models.HospitalStatistics, r.Tag)
	assert.Equal(t, meta.PublishedDate, r.PublishedDate)
	assert.Equal(t, meta.Source, r.Source)
}

func TestNormalizeSpreadRepair(t *testing.T) {
	table := raw(
		[]string{"Male", "52%", ""},
		[]string{"Female", "48%", "12%"},
		[]string{"Community transmission", "1,200", "40%"},
	)
	out := Normalize(table, models.Spread, meta)
	require.Len(t, out.Rows, 3)

	assert.True(t, out.Rows[0].Count.IsMissing())
	assert.InDelta(t, 0.52, number(t, out.Rows[0].Share), 1e-9)
	// the misplaced value wins over what was already in pct
	assert.InDelta(t, 0.48, number(t, out.Rows[1].Share), 1e-9)
	assert.Equal(t, 1200.0, number(t, out.Rows[2].Count))
	assert.InDelta(t, 0.40, number(t, out.Rows[2].Share), 1e-9)
}

func TestNormalizeNoRepairOutsideSpread(t *testing.T) {
	out := Normalize(raw([]string{"Female", "52%", ""}), models.Gender, meta)
	require.Len(t, out.Rows, 1)
	assert.True(t, out.Rows[0].Count.IsMissing())
	assert.True(t, out.Rows[0].Share.IsMissing())
}

func TestNormalizeFilters(t *testing.T) {
	table := raw(
		[]string{"Gender", "Number of people", "%"},
		[]string{"Gender", "Number", "%"},
		[]string{"Gender", "% known", "%"},
		[]string{"Gender", "n", "% of total"},
		[]string{"Female", "1200", "52%"},
	)
	out := Normalize(table, models.Gender, meta)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "Female", out.Rows[0].Label.String())
}

func TestNormalizeCounty(t *testing.T) {
	table := raw(
		[]string{"County", "Number of cases", "% of total"},
		[]string{"Dublin", "2,814", "55%"},
		[]string{"Cork", "<5", ""},
	)
	out := Normalize(table, models.County, meta)
	assert.Equal(t, []string{"county", "metric", "pct", "tag", "published_date", "source"}, out.Columns())
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "2814", out.Rows[0].Count.String())
	assert.InDelta(t, 0.55, number(t, out.Rows[0].Share), 1e-9)
	assert.Equal(t, "<5", out.Rows[1].Count.String())
	assert.True(t, out.Rows[1].Share.IsMissing())
}

func TestNormalizeMetricFilterOnlyForCounty(t *testing.T) {
	// "Number of cases" in the number column is not an artifact
	out := Normalize(raw([]string{"x", "Number of cases", "1%"}), models.HealthcareWorkers, meta)
	require.Len(t, out.Rows, 1)
	assert.True(t, out.Rows[0].Count.IsMissing())
}

func TestNormalizeShortRows(t *testing.T) {
	out := Normalize(raw([]string{"<1"}, []string{"1-4", "30"}), models.Age, meta)
	require.Len(t, out.Rows, 2)
	assert.True(t, out.Rows[0].Count.IsMissing())
	assert.Equal(t, 30.0, number(t, out.Rows[1].Count))
	assert.True(t, out.Rows[1].Share.IsMissing())
}

func TestNormalizeWithoutSchema(t *testing.T) {
	for _, cat := range []models.Category{models.AgeHospital, models.Unknown} {
		out := Normalize(raw([]string{"<5", "3", "1%"}), cat, meta)
		assert.Equal(t, cat, out.Category)
		assert.Empty(t, out.Rows)
		assert.Nil(t, out.Columns())
	}
}

func TestCount(t *testing.T) {
	assert.True(t, Count("52%").IsMissing())
	assert.True(t, Count("% 12").IsMissing())
	assert.True(t, Count("").IsMissing())
	assert.True(t, Count("n/a").IsMissing())
	assert.True(t, Count("NaN").IsMissing())
	assert.Equal(t, "10234.0", Count(" 10,234 ").String())
}

func TestPercent(t *testing.T) {
	for cell, want := range map[string]float64{
		"45%":  0.45,
		"100%": 1,
		"0%":   0,
		"7.5%": 0.075,
		"12":   0.12,
	} {
		f, ok := Percent(cell).Float()
		require.True(t, ok, cell)
		assert.InDelta(t, want, f, 1e-12, cell)
		assert.True(t, f >= 0 && f <= 1, cell)
	}
	assert.True(t, Percent("% of total").IsMissing())
	assert.True(t, Percent("").IsMissing())
}

func TestNormalizeFilteringIsIdempotent(t *testing.T) {
	table := raw(
		[]string{"Total number of cases", "Number", "% of total"},
		[]string{"Number of cases", "10234", "100%"},
		[]string{"Hospitalised", "1500", "15%"},
	)
	first := Normalize(table, models.HospitalStatistics, meta)

	again := models.RawTable{}
	for _, r := range first.Rows {
		again.Rows = append(again.Rows, []string{r.Label.String(), r.Count.String(), r.Share.String()})
	}
	second := Normalize(again, models.HospitalStatistics, meta)
	assert.Len(t, second.Rows, len(first.Rows))
}
