package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/queryir"
)

// compiler carries the settings of one Generate call down the tree.
// All scope lives in the catalogs passed alongside.
type compiler struct {
	ctx    context.Context
	source catalog.Source
	opts   Options
}

// compiled is the rendering of one query.
type compiled struct {
	sql    string
	where  string
	tables []string
}

// compileQuery registers the query's tables in cat and renders the statement.
//
// Semantics:
//
//	SELECT <cols|*> FROM `from` [<TYPE> JOIN `t` ON a = b [AND ...]]... [WHERE <where>]
func (c *compiler) compileQuery(q *queryir.Query, cat *catalog.Catalog, path string, depth int) (*compiled, error) {
	if q == nil {
		return nil, &queryir.Error{Kind: queryir.ErrUnsupportedClauseShape, Path: path, Message: "nil query"}
	}
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}

	fromPath := queryir.JoinPath(path, queryir.KeyFrom)
	if q.From == "" {
		return nil, &queryir.Error{
			Kind:    queryir.ErrMissingKey,
			Path:    path,
			Key:     queryir.KeyFrom,
			Message: fmt.Sprintf("missing key %q", queryir.KeyFrom),
		}
	}
	if err := c.register(cat, q.From, fromPath); err != nil {
		return nil, err
	}

	joinPath := queryir.JoinPath(path, queryir.KeyJoin)
	for i, j := range q.Joins {
		if err := c.register(cat, j.Table, queryir.JoinPath(queryir.IndexPath(joinPath, i), queryir.KeyTable)); err != nil {
			return nil, err
		}
	}

	var b strings.Builder
	for i, j := range q.Joins {
		frag, err := c.compileJoin(j, cat, queryir.IndexPath(joinPath, i))
		if err != nil {
			return nil, err
		}
		b.WriteString(" ")
		b.WriteString(frag)
	}
	joins := b.String()

	var where string
	if q.Where != nil {
		w, err := c.compileExpression(q.Where, cat, queryir.JoinPath(path, queryir.KeyWhere), depth)
		if err != nil {
			return nil, err
		}
		where = w
	}

	cols, err := c.compileSelect(q.Select, cat, queryir.JoinPath(path, queryir.KeySelect))
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s", cols, quoteIdent(q.From), joins)
	if where != "" {
		sql += " WHERE " + where
	}

	return &compiled{sql: sql, where: where, tables: cat.Tables()}, nil
}

// register brings table into scope, attaching path to a scope error.
func (c *compiler) register(cat *catalog.Catalog, table, path string) error {
	if table == "" {
		return &queryir.Error{
			Kind:    queryir.ErrMissingKey,
			Path:    path,
			Key:     queryir.KeyTable,
			Message: "table name is empty",
		}
	}
	err := cat.Register(c.ctx, table)
	if qe, ok := err.(*queryir.Error); ok {
		qe.Path = path
		return qe
	}
	return err
}

func (c *compiler) compileJoin(j queryir.Join, cat *catalog.Catalog, path string) (string, error) {
	onPath := queryir.JoinPath(path, "on")
	if len(j.On) == 0 {
		return "", &queryir.Error{
			Kind:    queryir.ErrEmptyConnective,
			Path:    onPath,
			Key:     "on",
			Message: "join requires at least one condition",
		}
	}

	conds := make([]string, len(j.On))
	for i, on := range j.On {
		condPath := queryir.IndexPath(onPath, i)
		left, err := resolveColumn(cat, on.Left.Table, on.Left.Attribute, queryir.JoinPath(condPath, "left"))
		if err != nil {
			return "", err
		}
		right, err := resolveColumn(cat, on.Right.Table, on.Right.Attribute, queryir.JoinPath(condPath, "right"))
		if err != nil {
			return "", err
		}
		if left != right {
			return "", &queryir.Error{
				Kind:     queryir.ErrTypeMismatch,
				Path:     condPath,
				Expected: string(left),
				Actual:   string(right),
				Message: fmt.Sprintf("cannot join %s.%s with %s.%s",
					on.Left.Table, on.Left.Attribute, on.Right.Table, on.Right.Attribute),
			}
		}
		conds[i] = columnRef(on.Left.Table, on.Left.Attribute) + " = " + columnRef(on.Right.Table, on.Right.Attribute)
	}

	return fmt.Sprintf("%s %s ON %s", j.Type.SQL(), quoteIdent(j.Table), strings.Join(conds, " AND ")), nil
}

func (c *compiler) compileSelect(cols []queryir.ColumnRef, cat *catalog.Catalog, path string) (string, error) {
	if len(cols) == 0 {
		return "*", nil
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		if _, err := resolveColumn(cat, col.Table, col.Attribute, queryir.IndexPath(path, i)); err != nil {
			return "", err
		}
		parts[i] = columnRef(col.Table, col.Attribute)
	}
	return strings.Join(parts, ", "), nil
}

// compileExpression renders a where node.
//
// depth counts the connectives and subqueries above e; the root where is
// depth 0.
func (c *compiler) compileExpression(e queryir.Expression, cat *catalog.Catalog, path string, depth int) (string, error) {
	if depth > c.opts.MaxDepth {
		return "", &queryir.Error{
			Kind:     queryir.ErrMaxNestingExceeded,
			Path:     path,
			Expected: fmt.Sprintf("depth <= %d", c.opts.MaxDepth),
			Actual:   fmt.Sprintf("depth %d", depth),
			Message:  "where clause is nested too deeply",
		}
	}

	switch node := e.(type) {
	case *queryir.Predicate:
		return c.compilePredicate(node, cat, queryir.JoinPath(path, queryir.KeyWhereCondition))

	case *queryir.And:
		return c.compileConnective("AND", node.Children, cat, queryir.JoinPath(path, queryir.KeyAnd), depth)

	case *queryir.Or:
		return c.compileConnective("OR", node.Children, cat, queryir.JoinPath(path, queryir.KeyOr), depth)

	case *queryir.Not:
		notPath := queryir.JoinPath(path, queryir.KeyNot)
		// NOT over EXISTS collapses into NOT EXISTS.
		if ex, ok := node.Child.(*queryir.Exists); ok {
			if depth+1 > c.opts.MaxDepth {
				return c.compileExpression(ex, cat, notPath, depth+1)
			}
			return c.compileExists("NOT EXISTS", ex.Child, queryir.JoinPath(notPath, queryir.KeyExists), depth+1)
		}
		inner, err := c.compileExpression(node.Child, cat, notPath, depth+1)
		if err != nil {
			return "", err
		}
		return "NOT ( " + inner + " )", nil

	case *queryir.Exists:
		return c.compileExists("EXISTS", node.Child, queryir.JoinPath(path, queryir.KeyExists), depth)

	case *queryir.NotExists:
		return c.compileExists("NOT EXISTS", node.Child, queryir.JoinPath(path, queryir.KeyNotExists), depth)

	case *queryir.Subquery:
		sub, err := c.compileSubquery(node, queryir.JoinPath(path, queryir.KeySubquery), depth+1)
		if err != nil {
			return "", err
		}
		return "( " + sub.sql + " )", nil

	case nil:
		return "", &queryir.Error{Kind: queryir.ErrUnsupportedClauseShape, Path: path, Message: "nil expression"}

	default:
		return "", &queryir.Error{
			Kind:    queryir.ErrUnsupportedClauseShape,
			Path:    path,
			Message: fmt.Sprintf("unknown expression type: %T", e),
		}
	}
}

// compileConnective renders ( c1 OP c2 OP ... ) with children in order.
func (c *compiler) compileConnective(op string, children []queryir.Expression, cat *catalog.Catalog, path string, depth int) (string, error) {
	if len(children) == 0 {
		return "", &queryir.Error{
			Kind:    queryir.ErrEmptyConnective,
			Path:    path,
			Message: fmt.Sprintf("%s has no operands", op),
		}
	}

	parts := make([]string, len(children))
	for i, child := range children {
		frag, err := c.compileExpression(child, cat, queryir.IndexPath(path, i), depth+1)
		if err != nil {
			return "", err
		}
		parts[i] = frag
	}
	return "( " + strings.Join(parts, " "+op+" ") + " )", nil
}

// compileExists renders KEYWORD ( SELECT ... ). The child must be a subquery;
// its statement is embedded directly, without a second pair of parentheses.
func (c *compiler) compileExists(keyword string, child queryir.Expression, path string, depth int) (string, error) {
	sub, ok := child.(*queryir.Subquery)
	if !ok {
		return "", &queryir.Error{
			Kind:     queryir.ErrInvalidExistsBody,
			Path:     path,
			Expected: queryir.KeySubquery,
			Actual:   queryir.ExpressionName(child),
			Message:  fmt.Sprintf("%s requires a nested query", strings.ToLower(keyword)),
		}
	}
	res, err := c.compileSubquery(sub, queryir.JoinPath(path, queryir.KeySubquery), depth+1)
	if err != nil {
		return "", err
	}
	return keyword + " ( " + res.sql + " )", nil
}

// compileSubquery compiles a nested query against a new, empty catalog.
func (c *compiler) compileSubquery(sub *queryir.Subquery, path string, depth int) (*compiled, error) {
	if sub == nil || sub.Query == nil {
		return nil, &queryir.Error{Kind: queryir.ErrUnsupportedClauseShape, Path: path, Message: "empty sub_query"}
	}
	return c.compileQuery(sub.Query, catalog.New(c.source), path, depth)
}
