package search

import (
	"strings"

	"github.com/pradiptarakha/corpusindex/internal/index"
)

// Operator precedence: NOT binds tightest, then AND, then OR. Equal
// precedence reduces left to right.
var precedence = map[string]int{
	"NOT": 3,
	"AND": 2,
	"OR":  1,
}

// EvalBoolean evaluates a Boolean query against idx and returns the
// matching document ids.
//
// The query is split on whitespace. A token is an operator only if it is
// exactly AND, OR, or NOT (case-sensitive); anything else is looked up
// verbatim as an index term, and unknown terms contribute the empty set.
// Two adjacent operands (and an operand followed by NOT) get an implicit
// AND between them, so "cat dog" means "cat AND dog". Evaluation uses a
// two-stack operator-precedence reduction; operand underflow from a
// malformed query produces the empty set instead of an error.
func EvalBoolean(query string, idx *index.Index) DocSet {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return DocSet{}
	}

	var operands []DocSet
	var operators []string
	malformed := false

	apply := func() {
		op := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		if op == "NOT" {
			if len(operands) == 0 {
				malformed = true
				operands = append(operands, DocSet{})
				return
			}
			a := operands[len(operands)-1]
			operands[len(operands)-1] = a.Complement(idx.NumDocs())
			return
		}
		if len(operands) < 2 {
			malformed = true
			operands = append(operands[:0], DocSet{})
			return
		}
		b := operands[len(operands)-1]
		a := operands[len(operands)-2]
		operands = operands[:len(operands)-2]
		switch op {
		case "AND":
			operands = append(operands, a.Intersect(b))
		case "OR":
			operands = append(operands, a.Union(b))
		}
	}

	pushOperator := func(op string) {
		for len(operators) > 0 && precedence[operators[len(operators)-1]] >= precedence[op] {
			apply()
		}
		operators = append(operators, op)
	}

	prevOperand := false
	for _, tok := range tokens {
		switch tok {
		case "AND", "OR", "NOT":
			if tok == "NOT" && prevOperand {
				pushOperator("AND")
			}
			pushOperator(tok)
			prevOperand = false
		default:
			if prevOperand {
				pushOperator("AND")
			}
			operands = append(operands, NewDocSet(idx.Docs(tok)...))
			prevOperand = true
		}
	}
	for len(operators) > 0 {
		apply()
	}
	if malformed || len(operands) == 0 {
		return DocSet{}
	}
	return operands[len(operands)-1]
}
