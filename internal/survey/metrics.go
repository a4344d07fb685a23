package survey

import (
	"cmp"
	"slices"
	"strings"

	"github.com/surveygraph/graph/internal/table"
)

// Metric is the count and share of one distinct answer.
type Metric struct {
	Answer   string  `json:"answer" yaml:"answer"`
	Count    int     `json:"count" yaml:"count"`
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

// Percent returns the share as a percentage in [0, 100].
func (m Metric) Percent() float64 {
	return m.Fraction * 100
}

// Metrics is the answer distribution of one column.
type Metrics struct {
	Column string   `json:"column" yaml:"column"`
	Total  int      `json:"total" yaml:"total"`
	Rows   []Metric `json:"rows" yaml:"rows"`
}

// Aggregate counts the distinct answers of column. Trailing periods are
// stripped from each value before grouping; surrounding whitespace is kept.
//
// Fractions use the row count of tbl as the denominator, so for a column
// expanded by a Normalizer the shares are relative to the number of answers
// given, not to the number of respondents.
//
// Rows are ordered by count, highest first, and equal counts by answer in
// ascending byte order.
func Aggregate(tbl *table.Table, column string) (*Metrics, error) {
	values, err := tbl.Values(column)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, v := range values {
		counts[strings.TrimRight(v, ".")]++
	}

	total := len(values)
	rows := make([]Metric, 0, len(counts))
	for answer, count := range counts {
		rows = append(rows, Metric{
			Answer:   answer,
			Count:    count,
			Fraction: float64(count) / float64(total),
		})
	}

	slices.SortFunc(rows, func(a, b Metric) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Answer, b.Answer)
	})

	return &Metrics{
		Column: column,
		Total:  total,
		Rows:   rows,
	}, nil
}

// Counted returns the sum of all answer counts.
func (m *Metrics) Counted() int {
	sum := 0
	for _, row := range m.Rows {
		sum += row.Count
	}
	return sum
}

// Copy returns a deep copy of m.
func (m *Metrics) Copy() *Metrics {
	return &Metrics{
		Column: m.Column,
		Total:  m.Total,
		Rows:   slices.Clone(m.Rows),
	}
}
