package schema

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Names returns the display names ("schema.name") of every table, view and
// routine, in that order.
func (d *Database) Names() []string {
	names := make([]string, 0, len(d.Tables)+len(d.Views)+len(d.Commands))
	for _, t := range d.Tables {
		names = append(names, t.Schema+"."+t.Name)
	}
	for _, v := range d.Views {
		names = append(names, v.Schema+"."+v.Name)
	}
	for _, c := range d.Commands {
		names = append(names, c.Schema+"."+c.Name)
	}
	return names
}

// lowerNames implements fuzzy.Source over case-folded names.
type lowerNames []string

func (l lowerNames) String(i int) string { return l[i] }
func (l lowerNames) Len() int            { return len(l) }

// Suggest returns up to max names that fuzzy-match query, best match first.
// Matching ignores case.
func (d *Database) Suggest(query string, max int) []string {
	names := d.Names()
	lower := make(lowerNames, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}

	seen := make(map[string]bool)
	var out []string
	for _, m := range fuzzy.FindFrom(strings.ToLower(query), lower) {
		n := names[m.Index]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		if len(out) == max {
			break
		}
	}
	return out
}
