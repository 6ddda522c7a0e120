package queryir

import (
	"fmt"

	"github.com/roach88/dynsql/internal/sqltype"
)

// DefaultMaxDepth is the default limit on where-tree nesting. Every
// connective and every subquery adds one level.
const DefaultMaxDepth = 64

// ValidationResult contains the structural problems found in a query.
type ValidationResult struct {
	// Valid is true when no problems were found.
	Valid bool

	// Errors lists every structural problem, in document order.
	Errors []*Error
}

// Validate checks the structure of a query without consulting any schema.
//
// It reports every problem it finds instead of stopping at the first one:
//   - and/or with no children (ErrEmptyConnective)
//   - exists/not_exists wrapping something other than a subquery (ErrInvalidExistsBody)
//   - between without a secondary value (ErrMissingSecondaryValue)
//   - unknown data types or operators on hand-built predicates
//   - nesting deeper than maxDepth (ErrMaxNestingExceeded)
//
// Table, column and literal checks need a catalog and happen in sqlgen.
// A maxDepth of zero or less selects DefaultMaxDepth.
//
// Validate is a pure function with no side effects.
func Validate(q *Query, maxDepth int) ValidationResult {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	v := &validator{maxDepth: maxDepth}
	v.validateQuery(q, "", 0)

	return ValidationResult{
		Valid:  len(v.errs) == 0,
		Errors: v.errs,
	}
}

// validator accumulates errors during traversal.
type validator struct {
	maxDepth int
	errs     []*Error
}

func (v *validator) add(err *Error) {
	v.errs = append(v.errs, err)
}

func (v *validator) validateQuery(q *Query, path string, depth int) {
	if q == nil {
		v.add(&Error{Kind: ErrUnsupportedClauseShape, Path: path, Message: "nil query"})
		return
	}
	if q.From == "" {
		v.add(missingKey(path, KeyFrom))
	}
	for i, j := range q.Joins {
		if len(j.On) == 0 {
			v.add(&Error{
				Kind:    ErrEmptyConnective,
				Path:    JoinPath(IndexPath(JoinPath(path, KeyJoin), i), "on"),
				Key:     "on",
				Message: "join requires at least one condition",
			})
		}
	}
	if q.Where != nil {
		v.validateExpression(q.Where, JoinPath(path, KeyWhere), depth)
	}
}

// validateExpression recursively validates a where node.
func (v *validator) validateExpression(e Expression, path string, depth int) {
	if depth > v.maxDepth {
		v.add(&Error{
			Kind:     ErrMaxNestingExceeded,
			Path:     path,
			Expected: fmt.Sprintf("depth <= %d", v.maxDepth),
			Actual:   fmt.Sprintf("depth %d", depth),
			Message:  "where clause is nested too deeply",
		})
		return
	}

	switch node := e.(type) {
	case *Predicate:
		v.validatePredicate(node, JoinPath(path, KeyWhereCondition))
	case *And:
		v.validateChildren(node.Children, JoinPath(path, KeyAnd), depth)
	case *Or:
		v.validateChildren(node.Children, JoinPath(path, KeyOr), depth)
	case *Not:
		v.validateChild(node.Child, JoinPath(path, KeyNot), depth)
	case *Exists:
		v.validateExistsBody(node.Child, JoinPath(path, KeyExists), depth)
	case *NotExists:
		v.validateExistsBody(node.Child, JoinPath(path, KeyNotExists), depth)
	case *Subquery:
		v.validateQuery(node.Query, JoinPath(path, KeySubquery), depth+1)
	case nil:
		v.add(&Error{Kind: ErrUnsupportedClauseShape, Path: path, Message: "nil expression"})
	default:
		v.add(&Error{
			Kind:    ErrUnsupportedClauseShape,
			Path:    path,
			Message: fmt.Sprintf("unknown expression type: %T", e),
		})
	}
}

func (v *validator) validateChildren(children []Expression, path string, depth int) {
	if len(children) == 0 {
		v.add(&Error{Kind: ErrEmptyConnective, Path: path, Message: "connective has no operands"})
		return
	}
	for i, child := range children {
		v.validateExpression(child, IndexPath(path, i), depth+1)
	}
}

func (v *validator) validateChild(child Expression, path string, depth int) {
	v.validateExpression(child, path, depth+1)
}

func (v *validator) validateExistsBody(child Expression, path string, depth int) {
	sub, ok := child.(*Subquery)
	if !ok {
		v.add(&Error{
			Kind:     ErrInvalidExistsBody,
			Path:     path,
			Expected: KeySubquery,
			Actual:   ExpressionName(child),
			Message:  "exists requires a nested query",
		})
		return
	}
	v.validateQuery(sub.Query, JoinPath(path, KeySubquery), depth+1)
}

func (v *validator) validatePredicate(p *Predicate, path string) {
	if p.Table == "" {
		v.add(missingKey(path, KeyTable))
	}
	if p.Attribute == "" {
		v.add(missingKey(path, KeyAttribute))
	}
	if !p.DataType.Valid() {
		v.add(&Error{
			Kind:    ErrUnknownDataType,
			Path:    JoinPath(path, KeyDataType),
			Key:     KeyDataType,
			Value:   string(p.DataType),
			Message: fmt.Sprintf("unknown data type %q", p.DataType),
		})
	}
	if _, ok := sqltype.ParseOperator(string(p.Operator)); !ok || p.Operator.SQL() == "" {
		v.add(&Error{
			Kind:    ErrUnknownOperator,
			Path:    JoinPath(path, KeyPrimaryOperator),
			Key:     KeyPrimaryOperator,
			Value:   string(p.Operator),
			Message: fmt.Sprintf("unknown operator %q", p.Operator),
		})
	}
	if p.Operator.Binary() && p.Secondary == nil {
		v.add(MissingSecondary(path, p.Operator))
	}
}

// MissingSecondary builds the error for a between condition without a second bound.
func MissingSecondary(path string, op sqltype.Operator) *Error {
	return &Error{
		Kind:    ErrMissingSecondaryValue,
		Path:    path,
		Key:     KeySecondaryValue,
		Message: fmt.Sprintf("missing key %q for operator %q", KeySecondaryValue, op),
	}
}

// ExpressionName returns the clause key that produces e, e.g. "and" for *And.
func ExpressionName(e Expression) string {
	switch e.(type) {
	case *Predicate:
		return KeyWhereCondition
	case *And:
		return KeyAnd
	case *Or:
		return KeyOr
	case *Not:
		return KeyNot
	case *Exists:
		return KeyExists
	case *NotExists:
		return KeyNotExists
	case *Subquery:
		return KeySubquery
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", e)
	}
}
