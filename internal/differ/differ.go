// Package differ computes the structural difference between two parsed
// schemas of the same dialect.
package differ

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/normalize"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

// Column change field keys.
const (
	FieldType       = "type"
	FieldNullable   = "nullable"
	FieldDefault    = "default"
	FieldComment    = "comment"
	FieldExtra      = "extra"
	FieldCharset    = "charset"
	FieldCollation  = "collation"
	FieldAttributes = "attributes"
	FieldDefinition = "definition"
)

type Differ struct {
	logger          *zap.Logger
	caseInsensitive bool
}

// New returns a Differ. With caseInsensitive set, table and column names are
// matched after lower-casing and column definitions are compared in their
// normalized form. Index names are always matched exactly.
func New(logger *zap.Logger, caseInsensitive bool) *Differ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Differ{logger: logger.Named("differ"), caseInsensitive: caseInsensitive}
}

// Diff compares left and right without logging.
func Diff(left, right *schema.Schema, caseInsensitive bool) *ObjectDiff {
	return New(nil, caseInsensitive).Diff(left, right)
}

// Diff reports what must change to turn left into right.
func (d *Differ) Diff(left, right *schema.Schema) *ObjectDiff {
	out := &ObjectDiff{
		AddedTables:    []string{},
		RemovedTables:  []string{},
		ModifiedTables: make(map[string]*TableDiff),
	}
	leftTables := d.tableIndex(left)
	rightTables := d.tableIndex(right)

	for key, r := range rightTables {
		if _, ok := leftTables[key]; !ok {
			out.AddedTables = append(out.AddedTables, r.Name)
		}
	}
	for key, l := range leftTables {
		r, ok := rightTables[key]
		if !ok {
			out.RemovedTables = append(out.RemovedTables, l.Name)
			continue
		}
		if td := d.diffTable(l, r); !td.IsEmpty() {
			out.ModifiedTables[l.Name] = td
		}
	}
	sort.Strings(out.AddedTables)
	sort.Strings(out.RemovedTables)

	d.logger.Debug("Schema diff computed",
		zap.Int("added_tables", len(out.AddedTables)),
		zap.Int("removed_tables", len(out.RemovedTables)),
		zap.Int("modified_tables", len(out.ModifiedTables)))
	return out
}

func (d *Differ) key(name string) string {
	return normalize.Identifier(name, d.caseInsensitive)
}

func (d *Differ) tableIndex(s *schema.Schema) map[string]*schema.Table {
	out := make(map[string]*schema.Table)
	if s == nil {
		return out
	}
	for _, name := range s.Names() {
		t := s.Tables[name]
		k := d.key(name)
		if _, dup := out[k]; dup {
			d.logger.Warn("Tables collide after case folding; keeping the first", zap.String("table", name))
			continue
		}
		out[k] = t
	}
	return out
}

func (d *Differ) diffTable(l, r *schema.Table) *TableDiff {
	td := &TableDiff{}
	if cd := d.diffColumns(l, r); !cd.IsEmpty() {
		td.Columns = cd
	}
	if id := diffIndexes(l, r); !id.IsEmpty() {
		td.Indexes = id
	}
	return td
}

func (d *Differ) diffColumns(l, r *schema.Table) *ColumnDiff {
	cd := &ColumnDiff{}
	leftCols := make(map[string]*schema.Column)
	for _, c := range l.OrderedColumns() {
		if _, dup := leftCols[d.key(c.Name)]; !dup {
			leftCols[d.key(c.Name)] = c
		}
	}
	rightCols := make(map[string]*schema.Column)
	for _, c := range r.OrderedColumns() {
		k := d.key(c.Name)
		if _, dup := rightCols[k]; dup {
			continue
		}
		rightCols[k] = c
		if _, ok := leftCols[k]; !ok {
			cd.Added = append(cd.Added, c)
		}
	}
	for _, c := range l.OrderedColumns() {
		k := d.key(c.Name)
		if leftCols[k] != c {
			continue
		}
		rc, ok := rightCols[k]
		if !ok {
			cd.Removed = append(cd.Removed, c)
			continue
		}
		if changes := d.compareColumn(c, rc); len(changes) > 0 {
			cd.Modified = append(cd.Modified, ColumnChange{
				Name:        c.Name,
				Left:        c.Raw,
				Right:       rc.Raw,
				LeftColumn:  c,
				RightColumn: rc,
				Changes:     changes,
			})
		}
	}
	return cd
}

// compareColumn returns the changed fields, or nil when the columns are equal.
func (d *Differ) compareColumn(l, r *schema.Column) map[string]FieldChange {
	if d.caseInsensitive {
		if normalize.Definition(l.Raw) == normalize.Definition(r.Raw) {
			return nil
		}
		// Attribute order is not significant here; only the fields decide.
		return d.detailChanges(l.Details, r.Details)
	}
	if l.Raw == r.Raw {
		return nil
	}
	changes := d.detailChanges(l.Details, r.Details)
	if len(changes) == 0 {
		changes = map[string]FieldChange{FieldDefinition: {Left: l.Raw, Right: r.Raw}}
	}
	return changes
}

func (d *Differ) detailChanges(l, r schema.ColumnDetails) map[string]FieldChange {
	lf, rf := detailFields(l), detailFields(r)
	var changes map[string]FieldChange
	for _, f := range []string{FieldType, FieldNullable, FieldDefault, FieldComment, FieldExtra, FieldCharset, FieldCollation, FieldAttributes} {
		equal := lf[f] == rf[f]
		if d.caseInsensitive && f == FieldType {
			equal = strings.EqualFold(lf[f], rf[f])
		}
		if equal {
			continue
		}
		if changes == nil {
			changes = make(map[string]FieldChange)
		}
		changes[f] = FieldChange{Left: lf[f], Right: rf[f]}
	}
	return changes
}

func detailFields(d schema.ColumnDetails) map[string]string {
	nullable := "NO"
	if d.Nullable {
		nullable = "YES"
	}
	return map[string]string{
		FieldType:       d.Type,
		FieldNullable:   nullable,
		FieldDefault:    normalize.Deref(normalize.Value(d.Default)),
		FieldComment:    normalize.Deref(normalize.Value(d.Comment)),
		FieldExtra:      normalize.Deref(normalize.Value(d.Extra)),
		FieldCharset:    normalize.Deref(normalize.Value(d.Charset)),
		FieldCollation:  normalize.Deref(normalize.Value(d.Collation)),
		FieldAttributes: strings.Join(d.Attributes, " "),
	}
}

func diffIndexes(l, r *schema.Table) *IndexDiff {
	id := &IndexDiff{}
	for _, rx := range r.OrderedIndexes() {
		if _, ok := l.Indexes[rx.Name]; !ok {
			id.Added = append(id.Added, rx)
		}
	}
	for _, lx := range l.OrderedIndexes() {
		rx, ok := r.Indexes[lx.Name]
		if !ok {
			id.Removed = append(id.Removed, lx)
			continue
		}
		if !sameIndex(lx, rx) {
			id.Modified = append(id.Modified, IndexChange{Name: lx.Name, Left: lx, Right: rx})
		}
	}
	return id
}

func sameIndex(a, b *schema.Index) bool {
	return a.Kind == b.Kind && a.Columns == b.Columns && a.References == b.References
}
