package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder collects optional filter conditions and their positional
// arguments. Conditions use "?" for the argument placeholder.
type whereBuilder struct {
	conditions []string
	args       []any
}

// add appends a condition. Every "?" in it refers to arg.
func (b *whereBuilder) add(condition string, arg any) {
	b.args = append(b.args, arg)
	b.conditions = append(b.conditions, strings.ReplaceAll(condition, "?", fmt.Sprintf("$%d", len(b.args))))
}

// raw appends a condition without arguments.
func (b *whereBuilder) raw(condition string) {
	b.conditions = append(b.conditions, condition)
}

// clause returns "WHERE a AND b", or "" when nothing was added.
func (b *whereBuilder) clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// page appends LIMIT and OFFSET arguments and returns their clause.
func (b *whereBuilder) page(offset, limit int) string {
	b.args = append(b.args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(b.args)-1, len(b.args))
}

// escapeLike escapes the ILIKE wildcards in s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// contains returns an ILIKE pattern matching s anywhere.
func contains(s string) string {
	return "%" + escapeLike(s) + "%"
}
