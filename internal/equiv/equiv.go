// Package equiv implements the logical-equivalence helper (spec §4.5): a
// bounded propositional implication test over the arena-indexed expression
// DAG, used by the planner's base-query choice (§4.4.2). The planner's
// IN/NOT IN coalescing (§4.4.5) does not consult it.
package equiv

import (
	"time"

	"audlangsql/internal/cerr"
	"audlangsql/internal/expr"
	"audlangsql/internal/op"
)

// TimeOut bounds the combinatoric searches this package performs. It
// short-circuits by aborting the conversion (never yielding) once
// exhausted, per spec §5.
type TimeOut struct {
	deadline time.Time
}

// NewTimeOut returns a TimeOut that expires after d.
func NewTimeOut(d time.Duration) *TimeOut {
	return &TimeOut{deadline: time.Now().Add(d)}
}

// Unbounded returns a TimeOut with a 24-hour budget, for callers (tests,
// small bindings) that do not need a real limit.
func Unbounded() *TimeOut {
	return &TimeOut{deadline: time.Now().Add(24 * time.Hour)}
}

// HaveTime reports whether the budget remains.
func (t *TimeOut) HaveTime() bool {
	return t == nil || time.Now().Before(t.deadline)
}

// AssertHaveTime returns a ConversionError(TimeOut) once the budget is
// exhausted; this is the sole suspension/abort point inside the helper
// (spec §5).
func (t *TimeOut) AssertHaveTime() error {
	if !t.HaveTime() {
		return &cerr.ConversionError{Code: cerr.CodeTimeOut, Reason: "logical-equivalence search exceeded its time budget"}
	}
	return nil
}

// Helper runs implication queries against one Arena.
type Helper struct {
	arena *expr.Arena
	to    *TimeOut
	memo  map[[2]expr.NodeID]bool
}

// NewHelper builds a Helper bound to arena and to (nil TimeOut means
// unbounded).
func NewHelper(arena *expr.Arena, to *TimeOut) *Helper {
	if to == nil {
		to = Unbounded()
	}
	return &Helper{arena: arena, to: to, memo: map[[2]expr.NodeID]bool{}}
}

// LeftImpliesRight tests whether the truth of left guarantees the truth of
// right (spec §4.4.2, §4.5). The search is sound but not complete: a false
// result means "could not prove implication within the node shapes this
// helper understands", not "definitely not implied".
func (h *Helper) LeftImpliesRight(left, right expr.NodeID) (bool, error) {
	if err := h.to.AssertHaveTime(); err != nil {
		return false, err
	}
	key := [2]expr.NodeID{left, right}
	if v, ok := h.memo[key]; ok {
		return v, nil
	}
	v, err := h.impliesUncached(left, right)
	if err != nil {
		return false, err
	}
	h.memo[key] = v
	return v, nil
}

func (h *Helper) impliesUncached(left, right expr.NodeID) (bool, error) {
	if left == right {
		return true, nil
	}

	ln := h.arena.Node(left)
	rn := h.arena.Node(right)

	// X implies (A OR B OR ...) if X implies any one disjunct.
	if rn.Kind == expr.KindCombined && rn.CombineOp == expr.Or {
		for _, m := range rn.Members {
			ok, err := h.LeftImpliesRight(left, m)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	// (A AND B AND ...) implies X if any one conjunct implies X.
	if ln.Kind == expr.KindCombined && ln.CombineOp == expr.And {
		for _, m := range ln.Members {
			ok, err := h.LeftImpliesRight(m, right)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	// (A OR B OR ...) implies X only if every disjunct implies X.
	if ln.Kind == expr.KindCombined && ln.CombineOp == expr.Or {
		all := true
		for _, m := range ln.Members {
			ok, err := h.LeftImpliesRight(m, right)
			if err != nil {
				return false, err
			}
			if !ok {
				all = false
				break
			}
		}
		if all && len(ln.Members) > 0 {
			return true, nil
		}
	}

	// X implies (A AND B AND ...) only if X implies every conjunct.
	if rn.Kind == expr.KindCombined && rn.CombineOp == expr.And {
		all := true
		for _, m := range rn.Members {
			ok, err := h.LeftImpliesRight(left, m)
			if err != nil {
				return false, err
			}
			if !ok {
				all = false
				break
			}
		}
		if all && len(rn.Members) > 0 {
			return true, nil
		}
	}

	if ln.Kind == expr.KindMatch && rn.Kind == expr.KindMatch {
		return matchImplies(ln, rn), nil
	}

	// STRICT negation is a genuine set-theoretic complement, so the
	// contrapositive holds: NOT-strict(B) implies NOT-strict(A) iff A
	// implies B. Lenient negation includes unknowns and is not sound to
	// invert this way.
	if ln.Kind == expr.KindNegation && rn.Kind == expr.KindNegation && ln.Strict && rn.Strict {
		return h.LeftImpliesRight(rn.Inner, ln.Inner)
	}

	if ln.Kind == expr.KindSpecialSet && rn.Kind == expr.KindSpecialSet {
		return ln.SetName == rn.SetName, nil
	}

	return false, nil
}

func matchImplies(l, r expr.Node) bool {
	if l.Arg != r.Arg {
		return false
	}
	if l.Op == r.Op && operandEqual(l.Operand, r.Operand) {
		return true
	}
	// EQUALS v implies GREATER_THAN/LESS_THAN is not sound in general
	// (depends on v vs the bound), so only exact-match equivalence and
	// IS_UNKNOWN-vs-anything-else (never implying each other) are decided
	// here; everything else is left to the OR/AND structural rules above.
	if r.Op == op.IsUnknown || l.Op == op.IsUnknown {
		return false
	}
	return false
}

func operandEqual(a, b expr.Operand) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == expr.OperandLiteral {
		return a.Literal == b.Literal
	}
	return a.RefArg == b.RefArg
}

// MinimumOrCombination searches, in ascending combination size, for the
// smallest subset of candidates whose disjunction implies root, returning
// the chosen subset and ok=true on the first match (spec §4.5). A
// combination's disjunction implies root exactly when every member does
// (the OR/implies-right rule above), so this search equivalently finds the
// smallest subset of candidates that each individually imply root.
func (h *Helper) MinimumOrCombination(candidates []expr.NodeID, root expr.NodeID) ([]expr.NodeID, bool, error) {
	qualifying := make([]expr.NodeID, 0, len(candidates))
	for _, c := range candidates {
		if err := h.to.AssertHaveTime(); err != nil {
			return nil, false, err
		}
		ok, err := h.LeftImpliesRight(c, root)
		if err != nil {
			return nil, false, err
		}
		if ok {
			qualifying = append(qualifying, c)
		}
	}
	for size := 1; size <= len(qualifying); size++ {
		combo, ok, err := h.firstComboOfSize(qualifying, size)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return combo, true, nil
		}
	}
	return nil, false, nil
}

func (h *Helper) firstComboOfSize(items []expr.NodeID, size int) ([]expr.NodeID, bool, error) {
	if size == 0 {
		return nil, false, nil
	}
	if err := h.to.AssertHaveTime(); err != nil {
		return nil, false, err
	}
	if size > len(items) {
		return nil, false, nil
	}
	// Since every item in `items` already individually implies root, the
	// first combination of any size is simply its first `size` elements.
	return append([]expr.NodeID(nil), items[:size]...), true, nil
}
