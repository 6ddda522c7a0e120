package sqltype

import (
	"slices"
	"strings"
)

// DataType is the declared type of a column and of the literals compared
// against it.
type DataType string

const (
	Integer  DataType = "int"
	String   DataType = "str"
	Boolean  DataType = "bool"
	Date     DataType = "date"
	DateTime DataType = "date_time"
)

// DataTypes lists every supported data type in declaration order.
var DataTypes = []DataType{Integer, String, Boolean, Date, DateTime}

// ParseDataType resolves an input token to a DataType.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseDataType(token string) (DataType, bool) {
	t := DataType(strings.ToLower(strings.TrimSpace(token)))
	for _, dt := range DataTypes {
		if dt == t {
			return dt, true
		}
	}
	return "", false
}

// Quoted reports whether literals of this type are rendered inside single
// quotes. String, Date and DateTime are quoted; Integer and Boolean are not.
func (d DataType) Quoted() bool {
	switch d {
	case String, Date, DateTime:
		return true
	default:
		return false
	}
}

// Valid reports whether d is one of the registered data types.
func (d DataType) Valid() bool {
	return slices.Contains(DataTypes, d)
}

func (d DataType) String() string { return string(d) }

// Operator is a comparison operator usable in a leaf condition.
type Operator string

const (
	Equals            Operator = "equals"
	NotEquals         Operator = "not_equals"
	GreaterThan       Operator = "greater_than"
	LessThan          Operator = "less_than"
	GreaterThanEquals Operator = "greater_than_equals"
	LessThanEquals    Operator = "less_than_equals"
	Is                Operator = "is"
	In                Operator = "in"
	Like              Operator = "like"
	Between           Operator = "between"
)

// operatorSQL maps each operator to its SQL token.
var operatorSQL = map[Operator]string{
	Equals:            "=",
	NotEquals:         "<>",
	GreaterThan:       ">",
	LessThan:          "<",
	GreaterThanEquals: ">=",
	LessThanEquals:    "<=",
	Is:                "IS",
	In:                "IN",
	Like:              "LIKE",
	Between:           "BETWEEN",
}

// Operators lists every supported operator in declaration order.
var Operators = []Operator{
	Equals, NotEquals, GreaterThan, LessThan, GreaterThanEquals,
	LessThanEquals, Is, In, Like, Between,
}

// ParseOperator resolves an input token to an Operator.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseOperator(token string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(token)))
	if _, ok := operatorSQL[op]; ok {
		return op, true
	}
	return "", false
}

// SQL returns the operator's SQL token, e.g. "=" for Equals.
func (o Operator) SQL() string {
	return operatorSQL[o]
}

// Binary reports whether the operator compares against two values.
// Between is the only one.
func (o Operator) Binary() bool {
	return o == Between
}

func (o Operator) String() string { return string(o) }
