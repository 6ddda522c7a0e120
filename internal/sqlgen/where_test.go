package sqlgen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqltype"
	"github.com/roach88/dynsql/internal/testutil"
)

func testSchema() catalog.Schema {
	return catalog.Schema{
		"orders": {
			"id":          sqltype.Integer,
			"customer_id": sqltype.Integer,
			"status":      sqltype.String,
			"total":       sqltype.Integer,
			"paid":        sqltype.Boolean,
			"placed_on":   sqltype.Date,
			"updated_at":  sqltype.DateTime,
		},
		"customers": {
			"id":     sqltype.Integer,
			"name":   sqltype.String,
			"active": sqltype.Boolean,
		},
		"refunds": {
			"id":       sqltype.Integer,
			"order_id": sqltype.Integer,
			"reason":   sqltype.String,
		},
	}
}

func testGenerator(opts Options) *Generator {
	opts.IDs = testutil.NewFixedIDGenerator("compilation-test")
	return New(catalog.NewStaticSource(testSchema()), opts)
}

// scopedCatalog returns a catalog with the given tables registered.
func scopedCatalog(t *testing.T, tables ...string) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(catalog.NewStaticSource(testSchema()))
	for _, table := range tables {
		require.NoError(t, cat.Register(context.Background(), table))
	}
	return cat
}

func statusEquals(value string) *queryir.Predicate {
	return &queryir.Predicate{
		Table:     "orders",
		Attribute: "status",
		DataType:  sqltype.String,
		Operator:  sqltype.Equals,
		Primary:   queryir.Scalar(value),
	}
}

func totalGreaterThan(value string) *queryir.Predicate {
	return &queryir.Predicate{
		Table:     "orders",
		Attribute: "total",
		DataType:  sqltype.Integer,
		Operator:  sqltype.GreaterThan,
		Primary:   queryir.Scalar(value),
	}
}

func compileWhere(t *testing.T, expr queryir.Expression) (string, error) {
	t.Helper()
	g := testGenerator(Options{})
	return g.CompileWhere(context.Background(), expr, scopedCatalog(t, "orders"))
}

func requireKind(t *testing.T, err error, kind queryir.ErrorKind) *queryir.Error {
	t.Helper()
	require.Error(t, err)
	var qe *queryir.Error
	require.ErrorAs(t, err, &qe, "expected *queryir.Error, got %v", err)
	require.Equal(t, kind, qe.Kind, "error: %v", err)
	return qe
}

func TestCompileWhere_LeafEquals(t *testing.T) {
	got, err := compileWhere(t, statusEquals("paid"))
	require.NoError(t, err)
	assert.Equal(t, "`orders`.`status` = 'paid'", got)
}

func TestCompileWhere_Operators(t *testing.T) {
	tests := []struct {
		name string
		pred *queryir.Predicate
		want string
	}{
		{
			name: "not equals",
			pred: &queryir.Predicate{Table: "orders", Attribute: "status", DataType: sqltype.String,
				Operator: sqltype.NotEquals, Primary: queryir.Scalar("void")},
			want: "`orders`.`status` <> 'void'",
		},
		{
			name: "greater than",
			pred: totalGreaterThan("100"),
			want: "`orders`.`total` > 100",
		},
		{
			name: "less than",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.LessThan, Primary: queryir.Scalar("5")},
			want: "`orders`.`total` < 5",
		},
		{
			name: "greater than equals date",
			pred: &queryir.Predicate{Table: "orders", Attribute: "placed_on", DataType: sqltype.Date,
				Operator: sqltype.GreaterThanEquals, Primary: queryir.Scalar("2024-01-01")},
			want: "`orders`.`placed_on` >= '2024-01-01'",
		},
		{
			name: "less than equals date time",
			pred: &queryir.Predicate{Table: "orders", Attribute: "updated_at", DataType: sqltype.DateTime,
				Operator: sqltype.LessThanEquals, Primary: queryir.Scalar("2024-01-01T12:00:00")},
			want: "`orders`.`updated_at` <= '2024-01-01T12:00:00'",
		},
		{
			name: "like",
			pred: &queryir.Predicate{Table: "orders", Attribute: "status", DataType: sqltype.String,
				Operator: sqltype.Like, Primary: queryir.Scalar("pa%")},
			want: "`orders`.`status` LIKE 'pa%'",
		},
		{
			name: "is boolean",
			pred: &queryir.Predicate{Table: "orders", Attribute: "paid", DataType: sqltype.Boolean,
				Operator: sqltype.Is, Primary: queryir.Scalar("true")},
			want: "`orders`.`paid` IS TRUE",
		},
		{
			name: "is null",
			pred: &queryir.Predicate{Table: "orders", Attribute: "status", DataType: sqltype.String,
				Operator: sqltype.Is, Primary: queryir.Literal{Null: true}},
			want: "`orders`.`status` IS NULL",
		},
		{
			name: "is null token",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Is, Primary: queryir.Scalar("NULL")},
			want: "`orders`.`total` IS NULL",
		},
		{
			name: "in list",
			pred: &queryir.Predicate{Table: "orders", Attribute: "status", DataType: sqltype.String,
				Operator: sqltype.In, Primary: queryir.Literal{List: true, Items: []string{"paid", "shipped"}}},
			want: "`orders`.`status` IN ('paid', 'shipped')",
		},
		{
			name: "in scalar",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.In, Primary: queryir.Scalar("3")},
			want: "`orders`.`total` IN (3)",
		},
		{
			name: "between",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Between, Primary: queryir.Scalar("10"), Secondary: ptr(queryir.Scalar("20"))},
			want: "`orders`.`total` BETWEEN 10 AND 20",
		},
		{
			name: "secondary ignored without between",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Equals, Primary: queryir.Scalar("10"), Secondary: ptr(queryir.Scalar("oops"))},
			want: "`orders`.`total` = 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compileWhere(t, tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileWhere_And(t *testing.T) {
	got, err := compileWhere(t, &queryir.And{Children: []queryir.Expression{
		statusEquals("paid"),
		totalGreaterThan("100"),
	}})
	require.NoError(t, err)
	assert.Equal(t, "( `orders`.`status` = 'paid' AND `orders`.`total` > 100 )", got)
}

func TestCompileWhere_NotOr(t *testing.T) {
	got, err := compileWhere(t, &queryir.Not{Child: &queryir.Or{Children: []queryir.Expression{
		statusEquals("paid"),
		statusEquals("shipped"),
	}}})
	require.NoError(t, err)
	assert.Equal(t, "NOT ( ( `orders`.`status` = 'paid' OR `orders`.`status` = 'shipped' ) )", got)
}

func TestCompileWhere_ConnectiveTokenCount(t *testing.T) {
	for n := 1; n <= 5; n++ {
		children := make([]queryir.Expression, n)
		for i := range children {
			children[i] = totalGreaterThan("1")
		}

		got, err := compileWhere(t, &queryir.Or{Children: children})
		require.NoError(t, err)
		assert.Equal(t, n-1, strings.Count(got, " OR "), "n=%d", n)
		assert.True(t, strings.HasPrefix(got, "( "))
		assert.True(t, strings.HasSuffix(got, " )"))
	}
}

func TestCompileWhere_EmptyConnective(t *testing.T) {
	_, err := compileWhere(t, &queryir.And{})
	qe := requireKind(t, err, queryir.ErrEmptyConnective)
	assert.Equal(t, "where.and", qe.Path)

	_, err = compileWhere(t, &queryir.Not{Child: &queryir.Or{Children: []queryir.Expression{}}})
	qe = requireKind(t, err, queryir.ErrEmptyConnective)
	assert.Equal(t, "where.not.or", qe.Path)
}

func TestCompileWhere_Exists(t *testing.T) {
	sub := &queryir.Subquery{Query: &queryir.Query{
		From: "refunds",
		Where: &queryir.Predicate{Table: "refunds", Attribute: "reason", DataType: sqltype.String,
			Operator: sqltype.Equals, Primary: queryir.Scalar("damaged")},
	}}

	got, err := compileWhere(t, &queryir.Exists{Child: sub})
	require.NoError(t, err)
	assert.Equal(t, "EXISTS ( SELECT * FROM `refunds` WHERE `refunds`.`reason` = 'damaged' )", got)

	got, err = compileWhere(t, &queryir.NotExists{Child: sub})
	require.NoError(t, err)
	assert.Equal(t, "NOT EXISTS ( SELECT * FROM `refunds` WHERE `refunds`.`reason` = 'damaged' )", got)

	got, err = compileWhere(t, &queryir.Not{Child: &queryir.Exists{Child: sub}})
	require.NoError(t, err)
	assert.Equal(t, "NOT EXISTS ( SELECT * FROM `refunds` WHERE `refunds`.`reason` = 'damaged' )", got)
}

func TestCompileWhere_Subquery(t *testing.T) {
	got, err := compileWhere(t, &queryir.Subquery{Query: &queryir.Query{
		Select: []queryir.ColumnRef{{Table: "customers", Attribute: "id"}},
		From:   "customers",
	}})
	require.NoError(t, err)
	assert.Equal(t, "( SELECT `customers`.`id` FROM `customers` )", got)
}

func TestCompileWhere_InvalidExistsBody(t *testing.T) {
	_, err := compileWhere(t, &queryir.Exists{Child: statusEquals("paid")})
	qe := requireKind(t, err, queryir.ErrInvalidExistsBody)
	assert.Equal(t, "where.exists", qe.Path)
	assert.Equal(t, queryir.KeySubquery, qe.Expected)
	assert.Equal(t, queryir.KeyWhereCondition, qe.Actual)

	_, err = compileWhere(t, &queryir.NotExists{Child: &queryir.And{}})
	requireKind(t, err, queryir.ErrInvalidExistsBody)
}

func TestCompileWhere_SubqueryDoesNotSeeOuterTables(t *testing.T) {
	// orders is registered by the outer query only.
	_, err := compileWhere(t, &queryir.Exists{Child: &queryir.Subquery{Query: &queryir.Query{
		From:  "refunds",
		Where: statusEquals("paid"),
	}}})
	qe := requireKind(t, err, queryir.ErrUnknownTable)
	assert.Equal(t, "where.exists.sub_query.where.where_condition.table", qe.Path)
	assert.Equal(t, "orders", qe.Value)
}

func TestCompileWhere_SubqueryDoesNotLeakIntoOuterScope(t *testing.T) {
	cat := scopedCatalog(t, "orders")
	g := testGenerator(Options{})

	_, err := g.CompileWhere(context.Background(), &queryir.And{Children: []queryir.Expression{
		&queryir.Exists{Child: &queryir.Subquery{Query: &queryir.Query{From: "refunds"}}},
		&queryir.Predicate{Table: "refunds", Attribute: "id", DataType: sqltype.Integer,
			Operator: sqltype.Equals, Primary: queryir.Scalar("1")},
	}}, cat)
	requireKind(t, err, queryir.ErrUnknownTable)
	assert.False(t, cat.IsRegistered("refunds"))
}

func TestCompileWhere_UnknownTableAtAnyDepth(t *testing.T) {
	var expr queryir.Expression = &queryir.Predicate{Table: "customers", Attribute: "id",
		DataType: sqltype.Integer, Operator: sqltype.Equals, Primary: queryir.Scalar("1")}

	for depth := 0; depth < 6; depth++ {
		_, err := compileWhere(t, expr)
		requireKind(t, err, queryir.ErrUnknownTable)
		expr = &queryir.Not{Child: &queryir.And{Children: []queryir.Expression{totalGreaterThan("0"), expr}}}
	}
}

func TestCompileWhere_PredicateErrors(t *testing.T) {
	tests := []struct {
		name string
		pred *queryir.Predicate
		kind queryir.ErrorKind
		path string
	}{
		{
			name: "unknown column",
			pred: &queryir.Predicate{Table: "orders", Attribute: "colour", DataType: sqltype.String,
				Operator: sqltype.Equals, Primary: queryir.Scalar("red")},
			kind: queryir.ErrUnknownColumn,
			path: "where.where_condition.attribute",
		},
		{
			name: "type mismatch",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.String,
				Operator: sqltype.Equals, Primary: queryir.Scalar("1")},
			kind: queryir.ErrTypeMismatch,
			path: "where.where_condition.data_type",
		},
		{
			name: "invalid integer",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Equals, Primary: queryir.Scalar("abc")},
			kind: queryir.ErrInvalidLiteral,
			path: "where.where_condition.primary_value",
		},
		{
			name: "invalid secondary",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Between, Primary: queryir.Scalar("1"), Secondary: ptr(queryir.Scalar("x"))},
			kind: queryir.ErrInvalidLiteral,
			path: "where.where_condition.secondary_value",
		},
		{
			name: "invalid list item",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.In, Primary: queryir.Literal{List: true, Items: []string{"1", "two"}}},
			kind: queryir.ErrInvalidLiteral,
			path: "where.where_condition.primary_value[1]",
		},
		{
			name: "empty list",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.In, Primary: queryir.Literal{List: true}},
			kind: queryir.ErrInvalidLiteral,
			path: "where.where_condition.primary_value",
		},
		{
			name: "list outside in",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Equals, Primary: queryir.Literal{List: true, Items: []string{"1"}}},
			kind: queryir.ErrInvalidLiteral,
			path: "where.where_condition.primary_value",
		},
		{
			name: "null outside is",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Equals, Primary: queryir.Literal{Null: true}},
			kind: queryir.ErrInvalidLiteral,
			path: "where.where_condition.primary_value",
		},
		{
			name: "unknown operator",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
				Operator: sqltype.Operator("contains"), Primary: queryir.Scalar("1")},
			kind: queryir.ErrUnknownOperator,
			path: "where.where_condition.primary_operator",
		},
		{
			name: "unknown data type",
			pred: &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.DataType("float"),
				Operator: sqltype.Equals, Primary: queryir.Scalar("1")},
			kind: queryir.ErrUnknownDataType,
			path: "where.where_condition.data_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileWhere(t, tt.pred)
			qe := requireKind(t, err, tt.kind)
			assert.Equal(t, tt.path, qe.Path)
		})
	}
}

func TestCompileWhere_CheckOrder(t *testing.T) {
	// Unknown column wins over a bad literal.
	_, err := compileWhere(t, &queryir.Predicate{Table: "orders", Attribute: "nope", DataType: sqltype.Integer,
		Operator: sqltype.Between, Primary: queryir.Scalar("abc")})
	requireKind(t, err, queryir.ErrUnknownColumn)

	// Type mismatch wins over a missing secondary value.
	_, err = compileWhere(t, &queryir.Predicate{Table: "orders", Attribute: "status", DataType: sqltype.Integer,
		Operator: sqltype.Between, Primary: queryir.Scalar("abc")})
	requireKind(t, err, queryir.ErrTypeMismatch)

	// Missing secondary value wins over a bad primary literal.
	_, err = compileWhere(t, &queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer,
		Operator: sqltype.Between, Primary: queryir.Scalar("abc")})
	requireKind(t, err, queryir.ErrMissingSecondaryValue)
}

func TestCompileWhere_BetweenRequiresSecondaryForEveryType(t *testing.T) {
	columns := map[sqltype.DataType]string{
		sqltype.Integer:  "total",
		sqltype.String:   "status",
		sqltype.Boolean:  "paid",
		sqltype.Date:     "placed_on",
		sqltype.DateTime: "updated_at",
	}
	for _, dt := range sqltype.DataTypes {
		t.Run(string(dt), func(t *testing.T) {
			_, err := compileWhere(t, &queryir.Predicate{Table: "orders", Attribute: columns[dt],
				DataType: dt, Operator: sqltype.Between, Primary: queryir.Scalar("x")})
			qe := requireKind(t, err, queryir.ErrMissingSecondaryValue)
			assert.Equal(t, queryir.KeySecondaryValue, qe.Key)
		})
	}
}

func TestCompileWhere_MaxDepth(t *testing.T) {
	g := testGenerator(Options{MaxDepth: 3})
	cat := scopedCatalog(t, "orders")

	var expr queryir.Expression = totalGreaterThan("1")
	for i := 0; i < 3; i++ {
		expr = &queryir.Not{Child: expr}
	}
	got, err := g.CompileWhere(context.Background(), expr, cat)
	require.NoError(t, err)
	assert.Equal(t, "NOT ( NOT ( NOT ( `orders`.`total` > 1 ) ) )", got)

	_, err = g.CompileWhere(context.Background(), &queryir.Not{Child: expr}, cat)
	qe := requireKind(t, err, queryir.ErrMaxNestingExceeded)
	assert.Equal(t, "where.not.not.not.not", qe.Path)
}

func TestCompileWhere_MaxDepthCountsSubqueries(t *testing.T) {
	g := testGenerator(Options{MaxDepth: 2})
	cat := scopedCatalog(t, "orders")

	nested := func(where queryir.Expression) queryir.Expression {
		return &queryir.Exists{Child: &queryir.Subquery{Query: &queryir.Query{From: "orders", Where: where}}}
	}

	_, err := g.CompileWhere(context.Background(), nested(nested(totalGreaterThan("1"))), cat)
	require.NoError(t, err)

	_, err = g.CompileWhere(context.Background(), nested(nested(nested(totalGreaterThan("1")))), cat)
	requireKind(t, err, queryir.ErrMaxNestingExceeded)
}

func TestCompileWhere_DeepNestingIsParenthesizedPerLevel(t *testing.T) {
	var expr queryir.Expression = totalGreaterThan("1")
	for i := 0; i < 20; i++ {
		expr = &queryir.And{Children: []queryir.Expression{expr}}
	}
	got, err := compileWhere(t, expr)
	require.NoError(t, err)
	assert.Equal(t, 20, strings.Count(got, "( "))
	assert.Equal(t, 20, strings.Count(got, " )"))
}

func TestCompileWhere_AgreesWithValidate(t *testing.T) {
	exprs := []queryir.Expression{
		&queryir.And{},
		&queryir.Exists{Child: statusEquals("x")},
		&queryir.Not{Child: &queryir.NotExists{Child: &queryir.Or{}}},
		&queryir.Predicate{Table: "orders", Attribute: "total", DataType: sqltype.Integer, Operator: sqltype.Between,
			Primary: queryir.Scalar("1")},
	}

	for _, expr := range exprs {
		res := queryir.Validate(&queryir.Query{From: "orders", Where: expr}, 0)
		require.False(t, res.Valid)

		_, err := compileWhere(t, expr)
		var qe *queryir.Error
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, res.Errors[0].Kind, qe.Kind)
		assert.Equal(t, res.Errors[0].Path, qe.Path)
	}
}

func ptr[T any](v T) *T {
	return &v
}
