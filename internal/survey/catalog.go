package survey

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surveygraph/graph/internal/table"
)

// Definition declares one survey question: the short identifier used for its
// output file, the column title in the export, and whether respondents could
// list several answers in free text.
type Definition struct {
	Slug        string `json:"slug" yaml:"slug"`
	Title       string `json:"title" yaml:"title"`
	MultiSelect bool   `json:"multi_select" yaml:"multi_select"`
}

// Catalog is the fixed question set of the survey, in chart order. The first
// column of the export is the response timestamp and is not listed.
var Catalog = []Definition{
	{
		Slug:  "frequency",
		Title: "Com que frequência você utiliza ferramentas de Inteligência Artificial (como ChatGPT, Gemini, Copilot) para auxiliar nas tarefas da disciplina de programação?",
	},
	{
		Slug:        "tools",
		Title:       "Quais ferramentas você utiliza?",
		MultiSelect: true,
	},
	{
		Slug:  "step",
		Title: "Em qual etapa do desenvolvimento do código você sente maior necessidade de usar a IA?",
	},
	{
		Slug:  "action",
		Title: "Quando a IA gera um código para você, o que você costuma fazer?",
	},
	{
		Slug:  "debugging",
		Title: "Você sente que o uso da IA atrapalha a sua capacidade de encontrar erros (debugar) sozinho?",
	},
	{
		Slug:  "test",
		Title: "Se você tivesse que fazer uma prova prática hoje, sem acesso à internet ou IA, como avaliaria sua confiança para resolver os problemas?",
	},
	{
		Slug:  "learning",
		Title: "Você acredita que aprende menos quando utiliza a IA para gerar a resposta de um exercício?",
	},
	{
		Slug:  "opinion",
		Title: "Na sua opinião, o uso de IA em disciplinas introdutórias deveria ser",
	},
	{
		Slug:  "professor",
		Title: "Para você, haveria algum problema em admitir ao seu professor que usou IA para realizar uma tarefa?",
	},
}

// Select returns the catalog entries named by slugs, in catalog order. An
// empty selection returns the whole catalog.
func Select(slugs []string) ([]Definition, error) {
	if len(slugs) == 0 {
		return append([]Definition(nil), Catalog...), nil
	}

	wanted := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		wanted[strings.TrimSpace(slug)] = true
	}

	selected := make([]Definition, 0, len(wanted))
	for _, def := range Catalog {
		if wanted[def.Slug] {
			selected = append(selected, def)
			delete(wanted, def.Slug)
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for slug := range wanted {
			unknown = append(unknown, slug)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown question(s) %s", ErrQuestionNotFound, strings.Join(unknown, ", "))
	}

	return selected, nil
}

// Build creates the question for def from tbl, splitting multi-select
// answers with n first.
func (def Definition) Build(tbl *table.Table, n *Normalizer) (*Question, error) {
	source := tbl
	if def.MultiSelect {
		column, ok := findColumn(def.Title, tbl)
		if !ok {
			return nil, fmt.Errorf("%s: %w: %q", def.Slug, ErrQuestionNotFound, def.Title)
		}

		expanded, err := n.Normalize(tbl, column)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Slug, err)
		}
		source = expanded
	}

	q, err := NewQuestion(def.Title, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Slug, err)
	}
	return q, nil
}
