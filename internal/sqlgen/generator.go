package sqlgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/ir"
	"github.com/roach88/dynsql/internal/queryir"
)

// Generator compiles query documents against a schema source.
type Generator struct {
	source catalog.Source
	opts   Options
	logger *slog.Logger
}

// Result is the output of one compilation.
type Result struct {
	// SQL is the complete statement.
	SQL string

	// Where is the rendered where tree without the WHERE keyword.
	// Empty when the document has no where clause.
	Where string

	// Tables lists the FROM and JOIN tables of the top-level query in
	// registration order.
	Tables []string

	// Fingerprint is the content-addressed ID of the input document.
	// Empty for GenerateQuery, which has no document.
	Fingerprint string

	// CompilationID identifies this compilation in logs.
	CompilationID string
}

// New creates a Generator over source.
func New(source catalog.Source, opts Options) *Generator {
	opts = opts.withDefaults()
	return &Generator{
		source: source,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Options returns the effective options, defaults applied.
func (g *Generator) Options() Options {
	return g.opts
}

// Generate compiles a JSON query document.
func (g *Generator) Generate(ctx context.Context, doc []byte) (*Result, error) {
	raw, err := queryir.ParseJSON(doc)
	if err != nil {
		return nil, err
	}
	return g.GenerateValue(ctx, raw)
}

// GenerateValue compiles an already-decoded JSON document, as produced by
// queryir.ParseJSON or a YAML decoder.
func (g *Generator) GenerateValue(ctx context.Context, doc any) (*Result, error) {
	fingerprint, err := ir.Fingerprint(doc)
	if err != nil {
		return nil, fmt.Errorf("fingerprint query document: %w", err)
	}

	q, err := queryir.DecodeValue(doc)
	if err != nil {
		g.logger.Debug("query document rejected",
			"fingerprint", fingerprint,
			"error", err)
		return nil, err
	}

	res, err := g.compile(ctx, q)
	if err != nil {
		return nil, err
	}
	res.Fingerprint = fingerprint
	return res, nil
}

// GenerateQuery compiles a hand-built query.
func (g *Generator) GenerateQuery(ctx context.Context, q *queryir.Query) (*Result, error) {
	return g.compile(ctx, q)
}

// CompileWhere renders expr against a catalog the caller has already
// populated. Used by callers that assemble the rest of the statement
// themselves.
func (g *Generator) CompileWhere(ctx context.Context, expr queryir.Expression, cat *catalog.Catalog) (string, error) {
	c := &compiler{ctx: ctx, source: cat.Source(), opts: g.opts}
	return c.compileExpression(expr, cat, queryir.KeyWhere, 0)
}

func (g *Generator) compile(ctx context.Context, q *queryir.Query) (*Result, error) {
	id := g.opts.IDs.Generate()
	logger := g.logger.With("compilation_id", id)

	c := &compiler{ctx: ctx, source: g.source, opts: g.opts}
	out, err := c.compileQuery(q, catalog.New(g.source), "", 0)
	if err != nil {
		logger.Debug("compilation failed", "error", err)
		return nil, err
	}

	logger.Debug("compiled query",
		"tables", out.tables,
		"dialect", string(g.opts.Dialect))

	return &Result{
		SQL:           out.sql,
		Where:         out.where,
		Tables:        out.tables,
		CompilationID: id,
	}, nil
}
