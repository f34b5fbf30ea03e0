package differ

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteText prints a human readable report of d. Nothing is written for an
// empty diff except a single "No differences found." line.
func WriteText(w io.Writer, d *ObjectDiff) error {
	var b strings.Builder
	if d.IsEmpty() {
		b.WriteString("No differences found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, t := range d.AddedTables {
		fmt.Fprintf(&b, "+ table %s\n", t)
	}
	for _, t := range d.RemovedTables {
		fmt.Fprintf(&b, "- table %s\n", t)
	}
	for _, name := range d.ModifiedTableNames() {
		td := d.ModifiedTables[name]
		fmt.Fprintf(&b, "~ table %s\n", name)
		if cd := td.Columns; cd != nil {
			for _, c := range cd.Added {
				fmt.Fprintf(&b, "    + column %s %s\n", c.Name, c.Raw)
			}
			for _, c := range cd.Removed {
				fmt.Fprintf(&b, "    - column %s %s\n", c.Name, c.Raw)
			}
			for _, ch := range cd.Modified {
				fmt.Fprintf(&b, "    ~ column %s\n", ch.Name)
				fields := make([]string, 0, len(ch.Changes))
				for f := range ch.Changes {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					fc := ch.Changes[f]
					fmt.Fprintf(&b, "        %s: %q -> %q\n", f, fc.Left, fc.Right)
				}
			}
		}
		if id := td.Indexes; id != nil {
			for _, ix := range id.Added {
				fmt.Fprintf(&b, "    + %s %s (%s)\n", strings.ToLower(string(ix.Kind)), ix.Name, ix.Columns)
			}
			for _, ix := range id.Removed {
				fmt.Fprintf(&b, "    - %s %s (%s)\n", strings.ToLower(string(ix.Kind)), ix.Name, ix.Columns)
			}
			for _, ch := range id.Modified {
				fmt.Fprintf(&b, "    ~ index %s: %s (%s) -> %s (%s)\n", ch.Name,
					strings.ToLower(string(ch.Left.Kind)), ch.Left.Columns,
					strings.ToLower(string(ch.Right.Kind)), ch.Right.Columns)
			}
		}
	}

	c := d.Counts()
	fmt.Fprintf(&b, "\n%d table(s) added, %d removed, %d modified\n",
		c["table_added"], c["table_removed"], c["table_modified"])
	_, err := io.WriteString(w, b.String())
	return err
}
