// Package linker implements the positional parameter linker (spec §4.6):
// rewriting a SQL fragment's ${id} placeholders into positional ? markers,
// decoupling parameter creation order from parameter appearance order.
package linker

import (
	"strings"

	"audlangsql/internal/cerr"
	"audlangsql/internal/param"
)

// Linked is the output of Link: a single SQL string with every ${id}
// replaced by ?, the ordered parameter list (one entry per ?, in
// left-to-right order), and the character positions of each ?.
type Linked struct {
	SQL        string
	Parameters []param.QueryParameter
	Positions  []int
}

// Link rewrites fragment's ${id} placeholders using the candidate
// parameters keyed by id. Errors: Unclosed (a ${ without }), Empty (${}),
// Unknown (id referenced but not provided), Duplicate (two distinct
// parameters sharing one id) — spec §4.6.
func Link(fragment string, candidates map[string]param.QueryParameter) (Linked, error) {
	var sb strings.Builder
	var params []param.QueryParameter
	var positions []int
	seen := map[string]param.QueryParameter{}

	i := 0
	for i < len(fragment) {
		start := strings.Index(fragment[i:], "${")
		if start < 0 {
			sb.WriteString(fragment[i:])
			break
		}
		start += i
		sb.WriteString(fragment[i:start])

		end := strings.Index(fragment[start:], "}")
		if end < 0 {
			return Linked{}, &cerr.TemplateSyntaxError{Kind: cerr.SyntaxUnclosed, Pos: start}
		}
		end += start

		id := fragment[start+2 : end]
		if id == "" {
			return Linked{}, &cerr.TemplateSyntaxError{Kind: cerr.SyntaxEmpty, Pos: start}
		}

		p, ok := candidates[id]
		if !ok {
			return Linked{}, &cerr.TemplateSyntaxError{Kind: cerr.SyntaxUnknown, ID: id}
		}
		if prior, ok := seen[id]; ok {
			if !prior.Equal(p) {
				return Linked{}, &cerr.TemplateSyntaxError{Kind: cerr.SyntaxDuplicate, ID: id}
			}
		} else {
			seen[id] = p
		}

		positions = append(positions, sb.Len())
		sb.WriteByte('?')
		params = append(params, p)

		i = end + 1
	}

	return Linked{SQL: sb.String(), Parameters: params, Positions: positions}, nil
}
