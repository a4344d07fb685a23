package survey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surveygraph/graph/internal/table"
)

var (
	// ErrQuestionNotFound is returned when no column carries the question title.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrIndexOutOfRange is returned when a column index is outside the table.
	ErrIndexOutOfRange = errors.New("column index out of range")
)

// Labels are the display names of the metrics dimensions.
type Labels struct {
	Answers string `json:"answers" yaml:"answers"`
	Count   string `json:"count" yaml:"count"`
	Percent string `json:"percent" yaml:"percent"`
	Legend  string `json:"legend" yaml:"legend"`
}

// DefaultLabels are the presentation labels used on every chart.
var DefaultLabels = Labels{
	Answers: "Respostas",
	Count:   "Contagem",
	Percent: "Porcentagem",
	Legend:  "Legenda",
}

// Question binds a survey question to its answer distribution. It is
// immutable once built.
type Question struct {
	title   string
	labels  Labels
	metrics *Metrics
}

// NewQuestion locates the column whose header is title and aggregates it.
// Headers that only differ from title by surrounding whitespace also match.
func NewQuestion(title string, tbl *table.Table) (*Question, error) {
	column, ok := findColumn(title, tbl)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrQuestionNotFound, title)
	}

	return newQuestion(title, column, tbl)
}

// NewQuestionAt aggregates the column at the zero-based index; the column
// header becomes the question title.
func NewQuestionAt(index int, tbl *table.Table) (*Question, error) {
	if index < 0 || index >= tbl.Width() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, tbl.Width())
	}

	column, err := tbl.ColumnName(index)
	if err != nil {
		return nil, err
	}

	return newQuestion(column, column, tbl)
}

func newQuestion(title, column string, tbl *table.Table) (*Question, error) {
	metrics, err := Aggregate(tbl, column)
	if err != nil {
		return nil, err
	}

	return &Question{
		title:   title,
		labels:  DefaultLabels,
		metrics: metrics,
	}, nil
}

func findColumn(title string, tbl *table.Table) (string, bool) {
	if _, err := tbl.ColumnIndex(title); err == nil {
		return title, true
	}

	want := strings.TrimSpace(title)
	for _, column := range tbl.Columns() {
		if strings.TrimSpace(column) == want {
			return column, true
		}
	}
	return "", false
}

// Title returns the question as it was asked.
func (q *Question) Title() string {
	return q.title
}

// Labels returns the display labels.
func (q *Question) Labels() Labels {
	return q.labels
}

// Metrics returns a copy of the answer distribution.
func (q *Question) Metrics() *Metrics {
	return q.metrics.Copy()
}
