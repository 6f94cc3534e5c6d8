package repository

import (
	"fmt"
	"strings"
)

// whereBuilder composes an AND-combined WHERE clause with numbered
// Postgres placeholders.  Callers add one condition per present filter
// field and then append LIMIT/OFFSET through next().
type whereBuilder struct {
	conds []string
	args  []any
}

// eq adds "col = $n".
func (w *whereBuilder) eq(col string, v any) {
	w.addf(col+" = $%d", v)
}

// addf adds a condition whose format contains exactly one %d for the
// placeholder index of v.
func (w *whereBuilder) addf(format string, v any) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

// raw adds a condition without arguments.
func (w *whereBuilder) raw(cond string) {
	w.conds = append(w.conds, cond)
}

// clause renders the WHERE clause, or an empty string without conditions.
func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT and OFFSET placeholders and returns the SQL suffix
// together with the full argument list.
func (w *whereBuilder) page(limit, offset int) (string, []any) {
	args := append(append([]any{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)+1, len(w.args)+2), args
}

// likePattern escapes LIKE wildcards in user input and wraps it in %.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
