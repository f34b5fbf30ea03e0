package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/normalize"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

type tableMapColumn struct {
	Raw     string                `json:"raw"`
	Details *schema.ColumnDetails `json:"details"`
}

type tableMapIndex struct {
	Type       string `json:"type"`
	Columns    string `json:"columns"`
	References string `json:"references"`
	Constraint string `json:"constraint"`
	Inline     bool   `json:"inline"`
}

type tableMapTable struct {
	Columns     map[string]tableMapColumn `json:"columns"`
	ColumnOrder []string                  `json:"column_order"`
	Indexes     map[string]tableMapIndex  `json:"indexes"`
	RawSQL      string                    `json:"raw_sql"`
}

// DecodeTableMap reads a pre-built table map, as handed over by a live
// introspection collaborator: {table: {columns: {name: {raw, normalized,
// details}}, indexes: {name: {type, columns}}, raw_sql}}. Normalized forms
// are always recomputed from raw; missing details and raw_sql are derived.
func DecodeTableMap(r io.Reader, d schema.Dialect) (*schema.Schema, error) {
	g, err := For(d)
	if err != nil {
		return nil, err
	}
	gr := g.(*grammar)

	var in map[string]tableMapTable
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode table map: %w", err)
	}

	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	out := schema.NewSchema(d)
	for _, name := range names {
		src := in[name]
		t := schema.NewTable(name)
		t.ColumnOrder = append(t.ColumnOrder, src.ColumnOrder...)
		for colName, c := range src.Columns {
			details := normalize.Details(c.Raw, gr.vocab)
			if c.Details != nil {
				details = *c.Details
			}
			t.Columns[colName] = &schema.Column{
				Name:       colName,
				Raw:        c.Raw,
				Normalized: normalize.Definition(c.Raw),
				Details:    details,
			}
		}
		for ixName, ix := range src.Indexes {
			kind, err := parseIndexKind(ix.Type)
			if err != nil {
				return nil, fmt.Errorf("table %s index %s: %w", name, ixName, err)
			}
			if kind == schema.IndexPrimary {
				ixName = schema.PrimaryIndexName
			}
			t.AddIndex(&schema.Index{
				Name:       ixName,
				Kind:       kind,
				Columns:    ix.Columns,
				References: ix.References,
				Constraint: ix.Constraint,
				Inline:     ix.Inline,
			})
		}
		t.RawSQL = src.RawSQL
		if strings.TrimSpace(t.RawSQL) == "" {
			t.RawSQL = g.BuildCreateTableSQL(t)
		}
		out.AddTable(t)
	}
	return out, nil
}

func parseIndexKind(s string) (schema.IndexKind, error) {
	switch strings.Join(strings.Fields(strings.ToUpper(s)), " ") {
	case "PRIMARY", "PRIMARY KEY":
		return schema.IndexPrimary, nil
	case "UNIQUE", "UNIQUE KEY", "UNIQUE INDEX":
		return schema.IndexUnique, nil
	case "KEY", "INDEX", "":
		return schema.IndexKey, nil
	case "FOREIGN", "FOREIGN KEY":
		return schema.IndexForeign, nil
	}
	return "", fmt.Errorf("unknown index type %q", s)
}
