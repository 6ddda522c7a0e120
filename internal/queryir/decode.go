package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/dynsql/internal/sqltype"
)

// Top-level document keys.
const (
	KeySelect = "select"
	KeyFrom   = "from"
	KeyJoin   = "join"
	KeyWhere  = "where"
)

// Clause keys of the where tree.
const (
	KeyWhereCondition = "where_condition"
	KeyAnd            = "and"
	KeyOr             = "or"
	KeyNot            = "not"
	KeyExists         = "exists"
	KeyNotExists      = "not_exists"
	KeySubquery       = "sub_query"
)

// Leaf condition keys.
const (
	KeyTable           = "table"
	KeyAttribute       = "attribute"
	KeyDataType        = "data_type"
	KeyPrimaryOperator = "primary_operator"
	KeyPrimaryValue    = "primary_value"
	KeySecondaryValue  = "secondary_value"
)

// clauseKeys lists the connective keys in the order they are reported.
var clauseKeys = []string{
	KeyWhereCondition, KeyAnd, KeyOr, KeyNot, KeyExists, KeyNotExists, KeySubquery,
}

// Decode parses a JSON query document.
// Numbers are kept as their literal text; they are never routed through float64.
func Decode(data []byte) (*Query, error) {
	doc, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return DecodeValue(doc)
}

// ParseJSON decodes exactly one JSON value, with numbers as json.Number.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode query document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode query document: unexpected data after top-level value")
	}
	return doc, nil
}

// DecodeValue converts an already-decoded JSON value (maps, slices, strings,
// json.Number, bool, nil) into a Query.
func DecodeValue(doc any) (*Query, error) {
	return decodeQuery(doc, "")
}

func decodeQuery(v any, path string) (*Query, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeError(path, "", "object", v, "query document must be an object")
	}

	q := &Query{}

	selectVal, ok := obj[KeySelect]
	if !ok {
		return nil, missingKey(path, KeySelect)
	}
	cols, err := decodeSelect(selectVal, JoinPath(path, KeySelect))
	if err != nil {
		return nil, err
	}
	q.Select = cols

	fromVal, ok := obj[KeyFrom]
	if !ok {
		return nil, missingKey(path, KeyFrom)
	}
	from, err := requireName(fromVal, JoinPath(path, KeyFrom), KeyFrom)
	if err != nil {
		return nil, err
	}
	q.From = from

	if joinVal, ok := obj[KeyJoin]; ok {
		joins, err := decodeJoins(joinVal, JoinPath(path, KeyJoin))
		if err != nil {
			return nil, err
		}
		q.Joins = joins
	}

	if whereVal, ok := obj[KeyWhere]; ok && whereVal != nil {
		wherePath := JoinPath(path, KeyWhere)
		whereObj, ok := whereVal.(map[string]any)
		if !ok {
			return nil, shapeError(wherePath, KeyWhere, "object", whereVal, "where must be a clause object")
		}
		if len(whereObj) > 0 {
			expr, err := decodeClause(whereObj, wherePath)
			if err != nil {
				return nil, err
			}
			q.Where = expr
		}
	}

	return q, nil
}

func decodeSelect(v any, path string) ([]ColumnRef, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, shapeError(path, KeySelect, "list", v, "select must be a list of columns")
	}
	cols := make([]ColumnRef, 0, len(list))
	for i, item := range list {
		ref, err := decodeColumnRef(item, IndexPath(path, i))
		if err != nil {
			return nil, err
		}
		cols = append(cols, ref)
	}
	return cols, nil
}

// decodeColumnRef accepts ["table", "column"] or {"table": ..., "attribute": ...}.
func decodeColumnRef(v any, path string) (ColumnRef, error) {
	switch val := v.(type) {
	case []any:
		if len(val) != 2 {
			return ColumnRef{}, &Error{
				Kind:     ErrUnsupportedClauseShape,
				Path:     path,
				Expected: "[table, column] pair",
				Actual:   fmt.Sprintf("list of %d", len(val)),
				Message:  "column reference must have exactly two elements",
			}
		}
		table, err := requireName(val[0], IndexPath(path, 0), KeyTable)
		if err != nil {
			return ColumnRef{}, err
		}
		attr, err := requireName(val[1], IndexPath(path, 1), KeyAttribute)
		if err != nil {
			return ColumnRef{}, err
		}
		return ColumnRef{Table: table, Attribute: attr}, nil
	case map[string]any:
		table, err := requireStringKey(val, path, KeyTable)
		if err != nil {
			return ColumnRef{}, err
		}
		attr, err := requireStringKey(val, path, KeyAttribute)
		if err != nil {
			return ColumnRef{}, err
		}
		return ColumnRef{Table: table, Attribute: attr}, nil
	default:
		return ColumnRef{}, shapeError(path, "", "[table, column] pair or object", v, "invalid column reference")
	}
}

func decodeJoins(v any, path string) ([]Join, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		// An empty join object means no join.
		if len(val) == 0 {
			return nil, nil
		}
		j, err := decodeJoin(val, path)
		if err != nil {
			return nil, err
		}
		return []Join{j}, nil
	case []any:
		joins := make([]Join, 0, len(val))
		for i, item := range val {
			itemPath := IndexPath(path, i)
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, shapeError(itemPath, "", "object", item, "join entry must be an object")
			}
			j, err := decodeJoin(obj, itemPath)
			if err != nil {
				return nil, err
			}
			joins = append(joins, j)
		}
		return joins, nil
	default:
		return nil, shapeError(path, KeyJoin, "object or list", v, "invalid join clause")
	}
}

func decodeJoin(obj map[string]any, path string) (Join, error) {
	table, err := requireStringKey(obj, path, KeyTable)
	if err != nil {
		return Join{}, err
	}
	j := Join{Table: table, Type: JoinInner}

	if typeVal, ok := obj["type"]; ok {
		s, ok := typeVal.(string)
		if !ok {
			return Join{}, shapeError(JoinPath(path, "type"), "type", "string", typeVal, "join type must be a string")
		}
		switch JoinType(strings.ToLower(strings.TrimSpace(s))) {
		case JoinInner:
			j.Type = JoinInner
		case JoinLeft:
			j.Type = JoinLeft
		default:
			return Join{}, &Error{
				Kind:     ErrUnsupportedClauseShape,
				Path:     JoinPath(path, "type"),
				Key:      "type",
				Value:    s,
				Expected: "inner|left",
				Actual:   s,
				Message:  "unsupported join type",
			}
		}
	}

	onVal, ok := obj["on"]
	if !ok {
		return Join{}, missingKey(path, "on")
	}
	onPath := JoinPath(path, "on")
	var items []any
	switch val := onVal.(type) {
	case map[string]any:
		items = []any{val}
	case []any:
		items = val
	default:
		return Join{}, shapeError(onPath, "on", "object or list", onVal, "invalid join condition")
	}
	if len(items) == 0 {
		return Join{}, &Error{
			Kind:    ErrEmptyConnective,
			Path:    onPath,
			Key:     "on",
			Message: "join requires at least one condition",
		}
	}
	for i, item := range items {
		itemPath := onPath
		if _, isList := onVal.([]any); isList {
			itemPath = IndexPath(onPath, i)
		}
		cond, ok := item.(map[string]any)
		if !ok {
			return Join{}, shapeError(itemPath, "", "object", item, "join condition must be an object")
		}
		leftVal, ok := cond["left"]
		if !ok {
			return Join{}, missingKey(itemPath, "left")
		}
		left, err := decodeColumnRef(leftVal, JoinPath(itemPath, "left"))
		if err != nil {
			return Join{}, err
		}
		rightVal, ok := cond["right"]
		if !ok {
			return Join{}, missingKey(itemPath, "right")
		}
		right, err := decodeColumnRef(rightVal, JoinPath(itemPath, "right"))
		if err != nil {
			return Join{}, err
		}
		j.On = append(j.On, JoinCondition{Left: left, Right: right})
	}

	return j, nil
}

// decodeClause decodes a clause object holding exactly one connective key.
func decodeClause(obj map[string]any, path string) (Expression, error) {
	if len(obj) != 1 {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, &Error{
			Kind:     ErrUnsupportedClauseShape,
			Path:     path,
			Expected: "exactly one of " + strings.Join(clauseKeys, "|"),
			Actual:   fmt.Sprintf("keys [%s]", strings.Join(keys, ", ")),
			Message:  "clause object must hold exactly one connective",
		}
	}

	var rawKey string
	var val any
	for k, v := range obj {
		rawKey, val = k, v
	}
	key := strings.ToLower(rawKey)
	childPath := JoinPath(path, key)

	switch key {
	case KeyWhereCondition:
		return decodePredicate(val, childPath)
	case KeyAnd:
		children, err := decodeChildren(val, childPath, key)
		if err != nil {
			return nil, err
		}
		return &And{Children: children}, nil
	case KeyOr:
		children, err := decodeChildren(val, childPath, key)
		if err != nil {
			return nil, err
		}
		return &Or{Children: children}, nil
	case KeyNot:
		child, err := decodeSingleChild(val, childPath, key)
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil
	case KeyExists:
		child, err := decodeSingleChild(val, childPath, key)
		if err != nil {
			return nil, err
		}
		return &Exists{Child: child}, nil
	case KeyNotExists:
		child, err := decodeSingleChild(val, childPath, key)
		if err != nil {
			return nil, err
		}
		return &NotExists{Child: child}, nil
	case KeySubquery:
		q, err := decodeQuery(val, childPath)
		if err != nil {
			return nil, err
		}
		return &Subquery{Query: q}, nil
	default:
		return nil, &Error{
			Kind:     ErrUnknownClause,
			Path:     path,
			Key:      rawKey,
			Expected: strings.Join(clauseKeys, "|"),
			Actual:   rawKey,
			Message:  fmt.Sprintf("unexpected keyword %q in where clause", rawKey),
		}
	}
}

// decodeChildren decodes the operand list of and/or.
// A single clause object is accepted as a one-element list.
func decodeChildren(v any, path, key string) ([]Expression, error) {
	switch val := v.(type) {
	case map[string]any:
		child, err := decodeClause(val, path)
		if err != nil {
			return nil, err
		}
		return []Expression{child}, nil
	case []any:
		children := make([]Expression, 0, len(val))
		for i, item := range val {
			itemPath := IndexPath(path, i)
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, shapeError(itemPath, "", "object", item,
					fmt.Sprintf("%s operands must be clause objects", strings.ToUpper(key)))
			}
			child, err := decodeClause(obj, itemPath)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return children, nil
	default:
		return nil, shapeError(path, key, "object or list", v,
			fmt.Sprintf("%s clause can only contain a list of (nested) conditions", strings.ToUpper(key)))
	}
}

func decodeSingleChild(v any, path, key string) (Expression, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeError(path, key, "object", v,
			fmt.Sprintf("%s clause can only contain a single clause object", strings.ToUpper(key)))
	}
	return decodeClause(obj, path)
}

func decodePredicate(v any, path string) (*Predicate, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeError(path, KeyWhereCondition, "object", v, "where condition must be an object")
	}

	table, err := requireStringKey(obj, path, KeyTable)
	if err != nil {
		return nil, err
	}
	attr, err := requireStringKey(obj, path, KeyAttribute)
	if err != nil {
		return nil, err
	}
	dtToken, err := requireStringKey(obj, path, KeyDataType)
	if err != nil {
		return nil, err
	}
	opToken, err := requireStringKey(obj, path, KeyPrimaryOperator)
	if err != nil {
		return nil, err
	}
	primaryVal, ok := obj[KeyPrimaryValue]
	if !ok {
		return nil, missingKey(path, KeyPrimaryValue)
	}

	dt, ok := sqltype.ParseDataType(dtToken)
	if !ok {
		return nil, &Error{
			Kind:     ErrUnknownDataType,
			Path:     JoinPath(path, KeyDataType),
			Key:      KeyDataType,
			Value:    dtToken,
			Expected: dataTypeTokens(),
			Actual:   dtToken,
			Message:  fmt.Sprintf("unknown data type %q", dtToken),
		}
	}
	op, ok := sqltype.ParseOperator(opToken)
	if !ok {
		return nil, &Error{
			Kind:     ErrUnknownOperator,
			Path:     JoinPath(path, KeyPrimaryOperator),
			Key:      KeyPrimaryOperator,
			Value:    opToken,
			Expected: operatorTokens(),
			Actual:   opToken,
			Message:  fmt.Sprintf("unknown operator %q", opToken),
		}
	}

	primary, err := decodeLiteral(primaryVal, JoinPath(path, KeyPrimaryValue), KeyPrimaryValue)
	if err != nil {
		return nil, err
	}

	p := &Predicate{
		Table:     table,
		Attribute: attr,
		DataType:  dt,
		Operator:  op,
		Primary:   primary,
	}

	if secondaryVal, ok := obj[KeySecondaryValue]; ok && secondaryVal != nil {
		secondary, err := decodeLiteral(secondaryVal, JoinPath(path, KeySecondaryValue), KeySecondaryValue)
		if err != nil {
			return nil, err
		}
		p.Secondary = &secondary
	}

	return p, nil
}

func decodeLiteral(v any, path, key string) (Literal, error) {
	if list, ok := v.([]any); ok {
		lit := Literal{List: true, Items: make([]string, 0, len(list))}
		for i, item := range list {
			text, ok := scalarText(item)
			if !ok || item == nil {
				return Literal{}, &Error{
					Kind:     ErrInvalidLiteral,
					Path:     IndexPath(path, i),
					Key:      key,
					Expected: "string, number or boolean",
					Actual:   jsonKind(item),
					Message:  "list values must be scalars",
				}
			}
			lit.Items = append(lit.Items, text)
		}
		return lit, nil
	}

	if v == nil {
		return Literal{Null: true}, nil
	}

	text, ok := scalarText(v)
	if !ok {
		return Literal{}, &Error{
			Kind:     ErrInvalidLiteral,
			Path:     path,
			Key:      key,
			Expected: "string, number, boolean, null or list",
			Actual:   jsonKind(v),
			Message:  "value must be a scalar",
		}
	}
	return Scalar(text), nil
}

// scalarText renders a JSON scalar as raw literal text.
func scalarText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	case int:
		return fmt.Sprintf("%d", val), true
	case int64:
		return fmt.Sprintf("%d", val), true
	case float64:
		return fmt.Sprintf("%v", val), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func requireStringKey(obj map[string]any, path, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", missingKey(path, key)
	}
	return requireName(v, JoinPath(path, key), key)
}

// requireName checks that v is a non-empty string.
func requireName(v any, path, key string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", shapeError(path, key, "string", v, fmt.Sprintf("%s must be a string", key))
	}
	if strings.TrimSpace(s) == "" {
		return "", &Error{
			Kind:    ErrMissingKey,
			Path:    path,
			Key:     key,
			Message: fmt.Sprintf("%s must not be empty", key),
		}
	}
	return s, nil
}

func missingKey(path, key string) *Error {
	at := path
	if at == "" {
		at = "(root)"
	}
	return &Error{
		Kind:    ErrMissingKey,
		Path:    path,
		Key:     key,
		Message: fmt.Sprintf("missing key %q in %s", key, at),
	}
}

func shapeError(path, key, expected string, actual any, msg string) *Error {
	return &Error{
		Kind:     ErrUnsupportedClauseShape,
		Path:     path,
		Key:      key,
		Expected: expected,
		Actual:   jsonKind(actual),
		Message:  msg,
	}
}

// jsonKind names the JSON shape of a decoded value.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case json.Number, int, int64, float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func dataTypeTokens() string {
	tokens := make([]string, len(sqltype.DataTypes))
	for i, dt := range sqltype.DataTypes {
		tokens[i] = string(dt)
	}
	return strings.Join(tokens, "|")
}

func operatorTokens() string {
	tokens := make([]string, len(sqltype.Operators))
	for i, op := range sqltype.Operators {
		tokens[i] = string(op)
	}
	return strings.Join(tokens, "|")
}
