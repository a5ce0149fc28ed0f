package database

import (
	"strconv"
	"strings"
)

// Filter accumulates AND-ed predicates. Predicates use ? placeholders,
// which are numbered as $n in the order arguments are added.
type Filter struct {
	conds []string
	args  []interface{}
}

// NewFilter starts a filter with fixed predicates that take no arguments
func NewFilter(conds ...string) *Filter {
	return &Filter{conds: append([]string(nil), conds...)}
}

// Add appends cond, binding one argument per ? in it
func (f *Filter) Add(cond string, args ...interface{}) *Filter {
	f.conds = append(f.conds, f.bind(cond, args...))
	return f
}

// Arg binds a single argument and returns its placeholder, for LIMIT and
// OFFSET or SET clauses.
func (f *Filter) Arg(v interface{}) string {
	f.args = append(f.args, v)
	return "$" + strconv.Itoa(len(f.args))
}

func (f *Filter) bind(cond string, args ...interface{}) string {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			b.WriteString(f.Arg(args[i]))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Where renders "WHERE a AND b", or "" without predicates
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

// Args returns the bound arguments in placeholder order
func (f *Filter) Args() []interface{} {
	return f.args
}
