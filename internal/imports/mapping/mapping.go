// Package mapping binds spreadsheet column headers to contact fields using an
// embedded alias table.
package mapping

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Field is a contact attribute a column can be bound to.
type Field string

const (
	FieldFirstName        Field = "first_name"
	FieldLastName         Field = "last_name"
	FieldFullName         Field = "full_name"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldTitle            Field = "title"
	FieldDepartment       Field = "department"
	FieldCompanyName      Field = "company_name"
	FieldCompanyDomain    Field = "company_domain"
	FieldLinkedInURL      Field = "linkedin_url"
	FieldCity             Field = "city"
	FieldCountry          Field = "country"
	FieldRelationshipTier Field = "relationship_tier"
	FieldPipelineStage    Field = "pipeline_stage"
	FieldNotes            Field = "notes"
)

// ExportColumns is the column order of exported files. Every name is an
// exact alias of its field, so an export imports back unchanged.
var ExportColumns = []Field{
	FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldTitle,
	FieldDepartment, FieldCompanyName, FieldCompanyDomain, FieldLinkedInURL,
	FieldCity, FieldCountry, FieldRelationshipTier, FieldPipelineStage, FieldNotes,
}

//go:embed headers.yaml
var headersYAML []byte

type alias struct {
	tokens []string
	field  Field
}

// Table is a compiled alias table.
type Table struct {
	exact map[string]Field
	// sorted by token count, longest first
	aliases []alias
}

var defaultTable = mustParse(headersYAML)

// Default returns the embedded alias table.
func Default() *Table {
	return defaultTable
}

func mustParse(raw []byte) *Table {
	t, err := Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("mapping: embedded header table: %v", err))
	}
	return t
}

// Parse compiles a YAML document of field → alias list.
func Parse(raw []byte) (*Table, error) {
	var doc map[Field][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse header table: %w", err)
	}

	t := &Table{exact: make(map[string]Field)}
	for field, list := range doc {
		for _, a := range list {
			n := Normalize(a)
			if n == "" {
				continue
			}
			if other, ok := t.exact[n]; ok && other != field {
				return nil, fmt.Errorf("alias %q claimed by %s and %s", n, other, field)
			}
			t.exact[n] = field
			t.aliases = append(t.aliases, alias{tokens: strings.Fields(n), field: field})
		}
	}
	sort.SliceStable(t.aliases, func(i, j int) bool {
		if len(t.aliases[i].tokens) != len(t.aliases[j].tokens) {
			return len(t.aliases[i].tokens) > len(t.aliases[j].tokens)
		}
		return strings.Join(t.aliases[i].tokens, " ") < strings.Join(t.aliases[j].tokens, " ")
	})
	return t, nil
}

// Normalize folds accents, lower-cases, turns every non alphanumeric rune
// into a space and collapses runs of spaces.
func Normalize(header string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, header)
	if err != nil {
		folded = header
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Match returns the field a single header maps to: an exact alias first,
// otherwise the longest alias found as a token sequence inside the header.
// Between equally long aliases the one further right wins, so "Contact
// Email" is an email column.
func (t *Table) Match(header string) (Field, bool) {
	n := Normalize(header)
	if n == "" {
		return "", false
	}
	if f, ok := t.exact[n]; ok {
		return f, true
	}

	tokens := strings.Fields(n)
	var (
		best    Field
		bestLen int
		bestPos = -1
	)
	for _, a := range t.aliases {
		if len(a.tokens) < bestLen {
			break
		}
		pos := lastSequence(tokens, a.tokens)
		if pos < 0 {
			continue
		}
		if len(a.tokens) > bestLen || pos > bestPos {
			best, bestLen, bestPos = a.field, len(a.tokens), pos
		}
	}
	return best, bestPos >= 0
}

// lastSequence returns the start of the last occurrence of needle in
// haystack, or -1.
func lastSequence(haystack, needle []string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := len(haystack) - len(needle); i >= 0; i-- {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

// Column is the binding decision for one header.
type Column struct {
	Index  int    `json:"index"`
	Header string `json:"header"`
	Field  Field  `json:"field,omitempty"`
}

// Mapping binds fields to column indexes.
type Mapping struct {
	Columns []Column
	index   map[Field]int
}

// Map binds every header. A field is bound to the first column that claims
// it; later claimants stay unmapped.
func (t *Table) Map(headers []string) Mapping {
	m := Mapping{Columns: make([]Column, len(headers)), index: make(map[Field]int)}
	for i, h := range headers {
		col := Column{Index: i, Header: h}
		if f, ok := t.Match(h); ok {
			if _, taken := m.index[f]; !taken {
				m.index[f] = i
				col.Field = f
			}
		}
		m.Columns[i] = col
	}
	return m
}

// Has reports whether field is bound.
func (m Mapping) Has(f Field) bool {
	_, ok := m.index[f]
	return ok
}

// Value returns the trimmed cell of row bound to f, or "".
func (m Mapping) Value(row []string, f Field) string {
	i, ok := m.index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
