package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/techzara/platform/types"
)

// whereBuilder accumulates SQL predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) add(format string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(format, len(b.args)))
}

func (b *whereBuilder) addTime(column, op string, t *time.Time) {
	if t == nil {
		return
	}
	b.add(column+" "+op+" $%d", *t)
}

func (b *whereBuilder) addPartial(column, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.add(column+" ILIKE $%d", "%"+escapeLike(value)+"%")
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func buildUserFilter(filter types.UserFilter) (string, []any) {
	var b whereBuilder
	b.addTime("u.created_at", "<=", filter.CreatedBefore)
	b.addTime("u.created_at", "<", filter.CreatedStrictlyBefore)
	b.addTime("u.created_at", ">=", filter.CreatedAfter)
	b.addTime("u.created_at", ">", filter.CreatedStrictlyAfter)
	b.addPartial("u.username", filter.Username)
	b.addPartial("u.firstname", filter.Firstname)
	b.addPartial("u.lastname", filter.Lastname)
	if filter.IsEnable != nil {
		b.add("u.is_enable = $%d", *filter.IsEnable)
	}
	return b.sql(), b.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
