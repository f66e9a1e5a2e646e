
package classifier

import (
	"strings"

	"govie-covid-scraper/internal/models"
)

// Rule tags a table when its text matches.
type Rule struct {
	Category models.Category
	Reason   string
	Match    func(text string) bool
}

func containsAll(subs ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range subs {
			if !strings.Contains(text, s) {
				return false
			}
		}
		return true
	}
}

// Rules are checked in order and the first match wins. Markers overlap
// ("female" contains "male", county tables can mention community
// transmission), so the order decides.
var Rules = []Rule{
	{models.HospitalStatistics, `contains "total number of cases"`, containsAll("total number of cases")},
	{models.Gender, `contains "male"`, containsAll("male")},
	{models.Spread, `contains "community transmission"`, containsAll("community transmission")},
	{models.HealthcareWorkers, `contains "travel related"`, containsAll("travel related")},
	{models.County, `contains "dublin"`, containsAll("dublin")},
	{models.Age, `contains "age group" and "<1"`, containsAll("age group", "<1")},
	{models.AgeHospital, `contains "<5" and "65+"`, containsAll("<5", "65+")},
}

type Classifier struct {
	rules []Rule
}

// New returns a Classifier using Rules.
func New() *Classifier { return &Classifier{rules: Rules} }

// Text is the lowercased, pipe-joined text of every cell, row by row.
func Text(t models.RawTable) string {
	var b strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strings.ToLower(strings.Join(row, "|")))
	}
	return b.String()
}

func (c *Classifier) Classify(t models.RawTable) models.Category {
	return c.Explain(t).Label
}

// Explain classifies t and reports which rule matched.
func (c *Classifier) Explain(t models.RawTable) models.Classification {
	text := Text(t)
	for _, r := range c.rules {
		if r.Match(text) {
			return models.Classification{Label: r.Category, Reason: r.Reason}
		}
	}
	return models.Classification{Label: models.Unknown, Reason: "no rule matched"}
}
