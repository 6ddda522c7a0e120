package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqltype"
)

// compilePredicate renders one leaf condition.
//
// Checks run in a fixed order: token validity, column existence, type
// match, secondary value presence, literal grammar.
func (c *compiler) compilePredicate(p *queryir.Predicate, cat *catalog.Catalog, path string) (string, error) {
	if !p.DataType.Valid() {
		return "", &queryir.Error{
			Kind:    queryir.ErrUnknownDataType,
			Path:    queryir.JoinPath(path, queryir.KeyDataType),
			Key:     queryir.KeyDataType,
			Value:   string(p.DataType),
			Message: fmt.Sprintf("unknown data type %q", p.DataType),
		}
	}
	if p.Operator.SQL() == "" {
		return "", &queryir.Error{
			Kind:    queryir.ErrUnknownOperator,
			Path:    queryir.JoinPath(path, queryir.KeyPrimaryOperator),
			Key:     queryir.KeyPrimaryOperator,
			Value:   string(p.Operator),
			Message: fmt.Sprintf("unknown operator %q", p.Operator),
		}
	}

	declared, err := resolveColumn(cat, p.Table, p.Attribute, path)
	if err != nil {
		return "", err
	}
	if declared != p.DataType {
		return "", &queryir.Error{
			Kind:     queryir.ErrTypeMismatch,
			Path:     queryir.JoinPath(path, queryir.KeyDataType),
			Key:      queryir.KeyDataType,
			Value:    string(p.DataType),
			Expected: string(declared),
			Actual:   string(p.DataType),
			Message:  fmt.Sprintf("column %s.%s is declared %q", p.Table, p.Attribute, declared),
		}
	}

	col := columnRef(p.Table, p.Attribute)
	primaryPath := queryir.JoinPath(path, queryir.KeyPrimaryValue)

	switch p.Operator {
	case sqltype.Between:
		if p.Secondary == nil {
			return "", queryir.MissingSecondary(path, p.Operator)
		}
		low, err := c.scalarLiteral(p.Primary, p.DataType, primaryPath, queryir.KeyPrimaryValue)
		if err != nil {
			return "", err
		}
		high, err := c.scalarLiteral(*p.Secondary, p.DataType,
			queryir.JoinPath(path, queryir.KeySecondaryValue), queryir.KeySecondaryValue)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, low, high), nil

	case sqltype.In:
		items := p.Primary.Items
		if !p.Primary.List {
			if p.Primary.Null {
				return "", nullNotAllowed(primaryPath, p.Operator)
			}
			items = []string{p.Primary.Text}
		}
		if len(items) == 0 {
			return "", &queryir.Error{
				Kind:     queryir.ErrInvalidLiteral,
				Path:     primaryPath,
				Key:      queryir.KeyPrimaryValue,
				Expected: "non-empty list",
				Actual:   "empty list",
				Message:  "in requires at least one value",
			}
		}
		lits := make([]string, len(items))
		for i, item := range items {
			lit, err := c.literal(item, p.DataType, queryir.IndexPath(primaryPath, i), queryir.KeyPrimaryValue)
			if err != nil {
				return "", err
			}
			lits[i] = lit
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(lits, ", ")), nil

	case sqltype.Is:
		if p.Primary.Null || (!p.Primary.List && strings.EqualFold(strings.TrimSpace(p.Primary.Text), "null")) {
			return col + " IS NULL", nil
		}
	}

	lit, err := c.scalarLiteral(p.Primary, p.DataType, primaryPath, queryir.KeyPrimaryValue)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", col, p.Operator.SQL(), lit), nil
}

// scalarLiteral validates a literal that must hold exactly one value.
func (c *compiler) scalarLiteral(l queryir.Literal, dt sqltype.DataType, path, key string) (string, error) {
	if l.List {
		return "", &queryir.Error{
			Kind:     queryir.ErrInvalidLiteral,
			Path:     path,
			Key:      key,
			Expected: string(dt),
			Actual:   "list",
			Message:  "only the in operator accepts a list of values",
		}
	}
	if l.Null {
		return "", &queryir.Error{
			Kind:     queryir.ErrInvalidLiteral,
			Path:     path,
			Key:      key,
			Expected: string(dt),
			Actual:   "null",
			Message:  "only the is operator accepts null",
		}
	}
	return c.literal(l.Text, dt, path, key)
}

func (c *compiler) literal(raw string, dt sqltype.DataType, path, key string) (string, error) {
	lit, err := ValidateLiteral(raw, dt, c.opts.Dialect)
	if err != nil {
		var qe *queryir.Error
		if errors.As(err, &qe) {
			qe.Path = path
			if qe.Key == "" {
				qe.Key = key
			}
		}
		return "", err
	}
	return lit, nil
}

// resolveColumn looks up table.attribute in the catalog.
// Fails with ErrUnknownTable if the table is not in scope and
// ErrUnknownColumn if it has no such column.
func resolveColumn(cat *catalog.Catalog, table, attribute, path string) (sqltype.DataType, error) {
	if !cat.IsRegistered(table) {
		return "", &queryir.Error{
			Kind:    queryir.ErrUnknownTable,
			Path:    queryir.JoinPath(path, queryir.KeyTable),
			Key:     queryir.KeyTable,
			Value:   table,
			Message: fmt.Sprintf("table %q is not part of the query (add it to from or join)", table),
		}
	}
	dt, ok := cat.Lookup(table, attribute)
	if !ok {
		return "", &queryir.Error{
			Kind:    queryir.ErrUnknownColumn,
			Path:    queryir.JoinPath(path, queryir.KeyAttribute),
			Key:     queryir.KeyAttribute,
			Value:   attribute,
			Message: fmt.Sprintf("table %q has no column %q", table, attribute),
		}
	}
	return dt, nil
}

func nullNotAllowed(path string, op sqltype.Operator) *queryir.Error {
	return &queryir.Error{
		Kind:    queryir.ErrInvalidLiteral,
		Path:    path,
		Key:     queryir.KeyPrimaryValue,
		Actual:  "null",
		Message: fmt.Sprintf("operator %q does not accept null", op),
	}
}
