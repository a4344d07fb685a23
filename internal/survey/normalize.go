package survey

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/surveygraph/graph/internal/table"
)

// RuleSet maps a title-cased raw answer to its canonical label.
type RuleSet map[string]string

// Apply returns the canonical label for token, or token itself when no rule
// matches. Matching is exact and case sensitive.
func (rs RuleSet) Apply(token string) string {
	if canonical, ok := rs[token]; ok {
		return canonical
	}
	return token
}

// DefaultRules merges the spelling variants of the AI tools seen in the
// survey answers. Keys are in title case because rules run after casing.
var DefaultRules = RuleSet{
	"Gpt":            "ChatGPT",
	"Chatgpt":        "ChatGPT",
	"Chat Gpt":       "ChatGPT",
	"Chat-Gpt":       "ChatGPT",
	"Chatgtp":        "ChatGPT",
	"Deepseek":       "DeepSeek",
	"Deepseak":       "DeepSeek",
	"Deep Seek":      "DeepSeek",
	"Github Copilot": "GitHub Copilot",
	"Notebooklm":     "NotebookLM",
}

// DefaultConjunctions are the separator words that join several answers in a
// single free-text cell.
var DefaultConjunctions = []string{" and ", " e "}

// Normalizer splits and canonicalizes multi-select free-text answers. It is
// not safe for concurrent use.
type Normalizer struct {
	conjunctions []string
	rules        RuleSet
	caser        cases.Caser
}

// NewNormalizer creates a normalizer. A nil rule set disables canonicalization
// and no conjunctions means cells are only split on commas.
func NewNormalizer(rules RuleSet, conjunctions ...string) *Normalizer {
	return &Normalizer{
		conjunctions: conjunctions,
		rules:        rules,
		caser:        cases.Title(language.Und),
	}
}

// DefaultNormalizer uses DefaultRules and DefaultConjunctions.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultRules, DefaultConjunctions...)
}

// Normalize expands column so that each row holds a single canonical answer.
// Every other column is repeated for each answer of the original row.
func (n *Normalizer) Normalize(tbl *table.Table, column string) (*table.Table, error) {
	return tbl.ExpandColumn(column, n.Tokens)
}

// Tokens splits one cell into canonical answers. Empty tokens are kept as
// empty strings.
func (n *Normalizer) Tokens(cell string) []string {
	for _, conj := range n.conjunctions {
		cell = strings.ReplaceAll(cell, conj, ",")
	}

	parts := strings.Split(cell, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		tokens = append(tokens, n.Canonical(part))
	}
	return tokens
}

// Canonical trims, title-cases and applies the rule set to a single token.
func (n *Normalizer) Canonical(token string) string {
	return n.rules.Apply(n.caser.String(trimToken(token)))
}

// trimToken strips surrounding whitespace and trailing periods, in any order
// they appear at the end of the token.
func trimToken(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	return strings.TrimRightFunc(s, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}
