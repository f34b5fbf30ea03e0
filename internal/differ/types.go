package differ

import (
	"sort"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

// FieldChange holds the left and right rendering of one changed column field.
type FieldChange struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// ColumnChange describes a column present on both sides whose definition
// differs. Left and Right are the raw definitions.
type ColumnChange struct {
	Name        string                 `json:"name"`
	Left        string                 `json:"left"`
	Right       string                 `json:"right"`
	LeftColumn  *schema.Column         `json:"-"`
	RightColumn *schema.Column         `json:"-"`
	Changes     map[string]FieldChange `json:"changes"`
}

// ColumnDiff groups column level differences of one table.
type ColumnDiff struct {
	Added    []*schema.Column `json:"added,omitempty"`
	Removed  []*schema.Column `json:"removed,omitempty"`
	Modified []ColumnChange   `json:"modified,omitempty"`
}

func (d *ColumnDiff) IsEmpty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0)
}

// IndexChange is an index present on both sides with a different structure.
type IndexChange struct {
	Name  string        `json:"name"`
	Left  *schema.Index `json:"left"`
	Right *schema.Index `json:"right"`
}

// IndexDiff groups index and constraint differences of one table.
type IndexDiff struct {
	Added    []*schema.Index `json:"added,omitempty"`
	Removed  []*schema.Index `json:"removed,omitempty"`
	Modified []IndexChange   `json:"modified,omitempty"`
}

func (d *IndexDiff) IsEmpty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0)
}

// TableDiff is the set of changes to a table present on both sides. Either
// part is nil when it has no changes.
type TableDiff struct {
	Columns *ColumnDiff `json:"columns,omitempty"`
	Indexes *IndexDiff  `json:"indexes,omitempty"`
}

func (d *TableDiff) IsEmpty() bool {
	return d == nil || (d.Columns.IsEmpty() && d.Indexes.IsEmpty())
}

// ObjectDiff is the structural difference between two schemas, read as the
// changes needed to turn the left schema into the right one.
type ObjectDiff struct {
	AddedTables    []string              `json:"added_tables"`
	RemovedTables  []string              `json:"removed_tables"`
	ModifiedTables map[string]*TableDiff `json:"modified_tables"`
}

func (d *ObjectDiff) IsEmpty() bool {
	return d == nil || (len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ModifiedTables) == 0)
}

// ModifiedTableNames returns the keys of ModifiedTables in sorted order.
func (d *ObjectDiff) ModifiedTableNames() []string {
	names := make([]string, 0, len(d.ModifiedTables))
	for n := range d.ModifiedTables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Counts summarises the diff by entry kind, keyed the way metrics label it.
func (d *ObjectDiff) Counts() map[string]int {
	c := map[string]int{
		"table_added":     len(d.AddedTables),
		"table_removed":   len(d.RemovedTables),
		"table_modified":  len(d.ModifiedTables),
		"column_added":    0,
		"column_removed":  0,
		"column_modified": 0,
		"index_added":     0,
		"index_removed":   0,
		"index_modified":  0,
	}
	for _, td := range d.ModifiedTables {
		if td.Columns != nil {
			c["column_added"] += len(td.Columns.Added)
			c["column_removed"] += len(td.Columns.Removed)
			c["column_modified"] += len(td.Columns.Modified)
		}
		if td.Indexes != nil {
			c["index_added"] += len(td.Indexes.Added)
			c["index_removed"] += len(td.Indexes.Removed)
			c["index_modified"] += len(td.Indexes.Modified)
		}
	}
	return c
}
