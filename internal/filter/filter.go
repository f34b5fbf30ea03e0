// Package filter narrows a parsed schema to the tables named by a TOML rule
// file before the two sides are compared.
package filter

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

// Rules is the on-disk form of a table filter. A pattern starting with "~" is
// a regular expression; anything else is an exact, case-insensitive name.
type Rules struct {
	DoTables     []string `toml:"do-tables" json:"do-tables"`
	IgnoreTables []string `toml:"ignore-tables" json:"ignore-tables"`
}

// Filter decides which tables take part in a comparison.
type Filter struct {
	reMap map[string]*regexp.Regexp

	doTables     []string
	ignoreTables []string
}

// LoadFile reads rules from a TOML file and compiles them.
func LoadFile(path string) (*Filter, error) {
	var rules Rules
	md, err := toml.DecodeFile(path, &rules)
	if err != nil {
		return nil, fmt.Errorf("failed to read table filter %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in table filter %s: %v", path, undecoded)
	}
	return New(rules)
}

func New(rules Rules) (*Filter, error) {
	f := &Filter{
		doTables:     rules.DoTables,
		ignoreTables: rules.IgnoreTables,
		reMap:        make(map[string]*regexp.Regexp),
	}
	for _, p := range append(append([]string{}, rules.DoTables...), rules.IgnoreTables...) {
		if err := f.addOneRegex(p); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Filter) addOneRegex(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty table pattern")
	}
	if _, ok := f.reMap[pattern]; ok {
		return nil
	}
	var expr string
	if pattern[0] == '~' {
		expr = "(?i)" + pattern[1:]
	} else {
		expr = "(?i)^" + regexp.QuoteMeta(pattern) + "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid table pattern %q: %w", pattern, err)
	}
	f.reMap[pattern] = re
	return nil
}

func (f *Filter) match(patterns []string, table string) bool {
	for _, p := range patterns {
		if f.reMap[p].MatchString(table) {
			return true
		}
	}
	return false
}

// Keep reports whether table passes both lists.
func (f *Filter) Keep(table string) bool {
	if f == nil {
		return true
	}
	if len(f.doTables) > 0 && !f.match(f.doTables, table) {
		return false
	}
	return !f.match(f.ignoreTables, table)
}

// Apply removes filtered tables from s in place and returns the names that
// were dropped.
func (f *Filter) Apply(s *schema.Schema) []string {
	if f == nil || s == nil {
		return nil
	}
	var dropped []string
	order := make([]string, 0, len(s.Tables))
	for _, name := range s.Names() {
		if f.Keep(name) {
			order = append(order, name)
			continue
		}
		delete(s.Tables, name)
		dropped = append(dropped, name)
	}
	s.TableOrder = order
	return dropped
}
