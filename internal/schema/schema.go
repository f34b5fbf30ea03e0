package schema

import (
	"sort"
)

// IndexKind classifies a key or constraint declared in a table body.
type IndexKind string

const (
	IndexPrimary IndexKind = "PRIMARY KEY"
	IndexUnique  IndexKind = "UNIQUE"
	IndexKey     IndexKind = "KEY"
	IndexForeign IndexKind = "FOREIGN KEY"
)

// PrimaryIndexName is the fixed name of a table's primary key entry.
const PrimaryIndexName = "PRIMARY"

// ColumnDetails is the structured decomposition of a column definition.
// Optional values are nil when the definition does not mention them.
type ColumnDetails struct {
	Type       string   `json:"type"`
	Nullable   bool     `json:"nullable"`
	Default    *string  `json:"default,omitempty"`
	Comment    *string  `json:"comment,omitempty"`
	Extra      *string  `json:"extra,omitempty"`
	Charset    *string  `json:"charset,omitempty"`
	Collation  *string  `json:"collation,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
}

type Column struct {
	Name       string        `json:"name,omitempty"`
	Raw        string        `json:"raw"`
	Normalized string        `json:"normalized"`
	Details    ColumnDetails `json:"details"`
}

type Index struct {
	Name       string    `json:"name,omitempty"`
	Kind       IndexKind `json:"type"`
	Columns    string    `json:"columns"`
	References string    `json:"references,omitempty"`
	// Constraint is the name given by a CONSTRAINT clause. The primary key
	// keeps its map key PRIMARY and carries its real name here.
	Constraint string `json:"constraint,omitempty"`
	// Inline is set when the key was declared inside the CREATE TABLE body
	// rather than as a standalone CREATE INDEX.
	Inline bool `json:"inline,omitempty"`
}

// Table is the parsed form of one CREATE TABLE statement.
type Table struct {
	Name        string             `json:"-"`
	Columns     map[string]*Column `json:"columns"`
	ColumnOrder []string           `json:"column_order,omitempty"`
	Indexes     map[string]*Index  `json:"indexes"`
	RawSQL      string             `json:"raw_sql"`
}

// Schema maps table names to tables for a single dialect.
type Schema struct {
	Dialect    Dialect           `json:"dialect"`
	Tables     map[string]*Table `json:"tables"`
	TableOrder []string          `json:"table_order,omitempty"`
}

func NewSchema(d Dialect) *Schema {
	return &Schema{Dialect: d, Tables: make(map[string]*Table)}
}

func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		Columns: make(map[string]*Column),
		Indexes: make(map[string]*Index),
	}
}

// AddTable stores t under its name. A redefinition replaces the earlier table
// but keeps its position in TableOrder.
func (s *Schema) AddTable(t *Table) {
	if _, exists := s.Tables[t.Name]; !exists {
		s.TableOrder = append(s.TableOrder, t.Name)
	}
	s.Tables[t.Name] = t
}

// Names returns table names in declaration order, followed by any tables
// missing from TableOrder in sorted order.
func (s *Schema) Names() []string {
	return orderedKeys(s.Tables, s.TableOrder)
}

func (s *Schema) Len() int { return len(s.Tables) }

// AddColumn stores c, keeping the first declaration position on redefinition.
func (t *Table) AddColumn(c *Column) {
	if _, exists := t.Columns[c.Name]; !exists {
		t.ColumnOrder = append(t.ColumnOrder, c.Name)
	}
	t.Columns[c.Name] = c
}

func (t *Table) AddIndex(ix *Index) {
	t.Indexes[ix.Name] = ix
}

// OrderedColumns returns the table's columns in declaration order.
func (t *Table) OrderedColumns() []*Column {
	names := orderedKeys(t.Columns, t.ColumnOrder)
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		cols = append(cols, t.Columns[n])
	}
	return cols
}

// OrderedIndexes returns indexes with PRIMARY first and the rest by name.
func (t *Table) OrderedIndexes() []*Index {
	names := make([]string, 0, len(t.Indexes))
	for n := range t.Indexes {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == PrimaryIndexName || names[j] == PrimaryIndexName {
			return names[i] == PrimaryIndexName && names[j] != PrimaryIndexName
		}
		return names[i] < names[j]
	})
	out := make([]*Index, 0, len(names))
	for _, n := range names {
		out = append(out, t.Indexes[n])
	}
	return out
}

// Primary returns the primary key entry, if any.
func (t *Table) Primary() (*Index, bool) {
	ix, ok := t.Indexes[PrimaryIndexName]
	return ix, ok
}

func orderedKeys[V any](m map[string]V, order []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, n := range order {
		if _, ok := m[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == len(m) {
		return out
	}
	rest := make([]string, 0, len(m)-len(out))
	for n := range m {
		if _, ok := seen[n]; !ok {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
