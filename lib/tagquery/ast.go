package tagquery

import "github.com/jamesblissett/tagfs/lib/tagstore"

// Expr is the abstract syntax tree of a parsed tag-query expression.
// It is produced by [Parse] and consumed by [Evaluate].
type Expr interface {
	// String renders the expression back into DSL text. Round-tripping
	// Parse(String()) yields an equivalent expression, though not
	// necessarily byte-identical (parenthesization may be normalized).
	String() string
}

// TagExpr matches paths carrying the given tag.
type TagExpr struct {
	Tag tagstore.Tag
}

func (e TagExpr) String() string { return e.Tag.String() }

// NotExpr matches paths (from the universe of tagged paths) that do
// not satisfy Operand.
type NotExpr struct {
	Operand Expr
}

func (e NotExpr) String() string { return "not " + wrapIfCompound(e.Operand) }

// AndExpr matches paths satisfying both Left and Right.
type AndExpr struct {
	Left, Right Expr
}

func (e AndExpr) String() string { return wrapIfCompound(e.Left) + " and " + wrapIfCompound(e.Right) }

// OrExpr matches paths satisfying either Left or Right.
type OrExpr struct {
	Left, Right Expr
}

func (e OrExpr) String() string { return wrapIfCompound(e.Left) + " or " + wrapIfCompound(e.Right) }

func wrapIfCompound(e Expr) string {
	switch e.(type) {
	case AndExpr, OrExpr:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}
