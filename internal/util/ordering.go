package util

import (
	"strings"

	"gorm.io/gorm/clause"
)

// ParseOrdering turns "-price,name" into ORDER BY columns. Fields not in
// allowed are dropped; allowed maps query names to column names.
func ParseOrdering(raw string, allowed map[string]string) []clause.OrderByColumn {
	var out []clause.OrderByColumn
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		col, ok := allowed[name]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	}
	return out
}
