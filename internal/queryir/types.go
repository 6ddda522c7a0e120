package queryir

import "github.com/roach88/dynsql/internal/sqltype"

// Query is one complete query document.
//
// Semantics:
//
//	SELECT <select> FROM <from> [<joins>] [WHERE <where>]
//
// An empty Select renders "*". A nil Where means no WHERE clause.
type Query struct {
	Select []ColumnRef
	From   string
	Joins  []Join
	Where  Expression
}

// Tables returns the FROM table followed by every joined table, in order.
func (q *Query) Tables() []string {
	tables := make([]string, 0, 1+len(q.Joins))
	tables = append(tables, q.From)
	for _, j := range q.Joins {
		tables = append(tables, j.Table)
	}
	return tables
}

// ColumnRef names a column of a table.
type ColumnRef struct {
	Table     string
	Attribute string
}

// JoinType selects the join flavor.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
)

// SQL returns the join keyword.
func (t JoinType) SQL() string {
	if t == JoinLeft {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// Join adds a table to the query scope.
//
// On holds equality conditions between columns, all of which must hold.
type Join struct {
	Table string
	Type  JoinType
	On    []JoinCondition
}

// JoinCondition is Left = Right.
type JoinCondition struct {
	Left  ColumnRef
	Right ColumnRef
}

// Expression is a node of the where tree.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	expressionNode()
}

// Literal is a raw value as written in the document, before validation
// against a data type.
//
// Scalars carry their text in Text (JSON numbers keep their literal digits,
// booleans become "true"/"false"). A JSON null sets Null. A JSON list sets
// List and fills Items.
type Literal struct {
	Text  string
	Null  bool
	List  bool
	Items []string
}

// Scalar returns a Literal holding one raw value.
func Scalar(text string) Literal {
	return Literal{Text: text}
}

// Predicate is a leaf comparison.
//
// Semantics:
//
//	`table`.`attribute` OP primary
//	`table`.`attribute` BETWEEN primary AND secondary
//
// Secondary is required when Operator is Between and ignored otherwise.
type Predicate struct {
	Table     string
	Attribute string
	DataType  sqltype.DataType
	Operator  sqltype.Operator
	Primary   Literal
	Secondary *Literal
}

func (*Predicate) expressionNode() {}

// And is a conjunction. Children must be non-empty; order is kept in the
// rendered text.
type And struct {
	Children []Expression
}

func (*And) expressionNode() {}

// Or is a disjunction. Children must be non-empty; order is kept in the
// rendered text.
type Or struct {
	Children []Expression
}

func (*Or) expressionNode() {}

// Not negates its child.
type Not struct {
	Child Expression
}

func (*Not) expressionNode() {}

// Exists holds when the child subquery returns at least one row.
// Child must be a *Subquery.
type Exists struct {
	Child Expression
}

func (*Exists) expressionNode() {}

// NotExists holds when the child subquery returns no rows.
// Child must be a *Subquery.
type NotExists struct {
	Child Expression
}

func (*NotExists) expressionNode() {}

// Subquery is a nested query compiled in its own table scope.
type Subquery struct {
	Query *Query
}

func (*Subquery) expressionNode() {}
