// Package ast defines the syntax tree for the Luau-flavoured Lua dialect
// moonfall rewrites, plus the traversal and printing machinery the rewrite
// rules are built on.
package ast

// Node is the interface for all AST nodes.
type Node interface {
	node()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt()
	StmtLine() int
}

// BaseStmt provides the source position common to all statements.
type BaseStmt struct {
	SourceLine int // start line in the original source
}

func (b BaseStmt) StmtLine() int { return b.SourceLine }

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// Block is a sequence of statements. A return, if present, is the last
// statement (the parser enforces this).
type Block struct {
	Stmts []Stmt
}

func (b *Block) node() {}

// Chunk is the root node for one parsed file.
type Chunk struct {
	Body       *Block
	SourceFile string // display path of the source file
}

func (c *Chunk) node() {}

// --- Statements ---

// LocalStmt represents local n1, n2 = e1, e2.
type LocalStmt struct {
	BaseStmt
	Names  []string
	Values []Expr
}

func (s *LocalStmt) node() {}
func (s *LocalStmt) stmt() {}

// AssignStmt represents t1, t2 = e1, e2.
type AssignStmt struct {
	BaseStmt
	Targets []Expr
	Values  []Expr
}

func (s *AssignStmt) node() {}
func (s *AssignStmt) stmt() {}

// CompoundAssignStmt represents the Luau form target op= value
// (e.g. x += 1). Removed by the remove_compound_assignment rule.
type CompoundAssignStmt struct {
	BaseStmt
	Target Expr
	Op     string // "+=", "-=", "*=", "/=", "//=", "%=", "^=", "..="
	Value  Expr
}

func (s *CompoundAssignStmt) node() {}
func (s *CompoundAssignStmt) stmt() {}

// CallStmt is a function or method call in statement position.
type CallStmt struct {
	BaseStmt
	Call Expr // *CallExpr or *MethodCallExpr
}

func (s *CallStmt) node() {}
func (s *CallStmt) stmt() {}

// DoStmt represents do ... end.
type DoStmt struct {
	BaseStmt
	Body *Block
}

func (s *DoStmt) node() {}
func (s *DoStmt) stmt() {}

// WhileStmt represents while cond do ... end.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body *Block
}

func (s *WhileStmt) node() {}
func (s *WhileStmt) stmt() {}

// RepeatStmt represents repeat ... until cond.
type RepeatStmt struct {
	BaseStmt
	Body *Block
	Cond Expr
}

func (s *RepeatStmt) node() {}
func (s *RepeatStmt) stmt() {}

// IfStmt represents if/elseif/else/end.
type IfStmt struct {
	BaseStmt
	Cond    Expr
	Then    *Block
	ElseIfs []ElseIfClause
	Else    *Block // nil when absent
}

func (s *IfStmt) node() {}
func (s *IfStmt) stmt() {}

// ElseIfClause is one elseif branch.
type ElseIfClause struct {
	Cond Expr
	Body *Block
}

// NumericForStmt represents for v = start, limit [, step] do ... end.
type NumericForStmt struct {
	BaseStmt
	Var   string
	Start Expr
	Limit Expr
	Step  Expr // nil when absent
	Body  *Block
}

func (s *NumericForStmt) node() {}
func (s *NumericForStmt) stmt() {}

// GenericForStmt represents for n1, n2 in e1, e2 do ... end.
type GenericForStmt struct {
	BaseStmt
	Names []string
	Exprs []Expr
	Body  *Block
}

func (s *GenericForStmt) node() {}
func (s *GenericForStmt) stmt() {}

// FunctionDeclStmt represents function a.b.c[:m]() ... end and
// local function f() ... end.
type FunctionDeclStmt struct {
	BaseStmt
	IsLocal bool
	Name    []string // dotted name path; for local functions a single name
	Method  string   // method name after ':', empty when absent
	Func    *FunctionExpr
}

func (s *FunctionDeclStmt) node() {}
func (s *FunctionDeclStmt) stmt() {}

// ReturnStmt represents return e1, e2.
type ReturnStmt struct {
	BaseStmt
	Values []Expr
}

func (s *ReturnStmt) node() {}
func (s *ReturnStmt) stmt() {}

// BreakStmt represents break.
type BreakStmt struct{ BaseStmt }

func (s *BreakStmt) node() {}
func (s *BreakStmt) stmt() {}

// ContinueStmt is the Luau continue statement. Removed by the
// remove_continue rule.
type ContinueStmt struct{ BaseStmt }

func (s *ContinueStmt) node() {}
func (s *ContinueStmt) stmt() {}

// GotoStmt represents goto label.
type GotoStmt struct {
	BaseStmt
	Label string
}

func (s *GotoStmt) node() {}
func (s *GotoStmt) stmt() {}

// LabelStmt represents ::label::.
type LabelStmt struct {
	BaseStmt
	Name string
}

func (s *LabelStmt) node() {}
func (s *LabelStmt) stmt() {}

// --- Expressions ---

// NilExpr is the nil literal.
type NilExpr struct{}

func (e *NilExpr) node() {}
func (e *NilExpr) expr() {}

// BoolExpr is true or false.
type BoolExpr struct {
	Value bool
}

func (e *BoolExpr) node() {}
func (e *BoolExpr) expr() {}

// VarargExpr is the ... expression.
type VarargExpr struct{}

func (e *VarargExpr) node() {}
func (e *VarargExpr) expr() {}

// NumberExpr is a number literal. Raw preserves the source spelling,
// including Luau-only forms (0b prefix, underscores) until the
// normalize_number_literals rule rewrites them.
type NumberExpr struct {
	Raw string
}

func (e *NumberExpr) node() {}
func (e *NumberExpr) expr() {}

// StringExpr is a string literal holding the decoded value.
type StringExpr struct {
	Value string
}

func (e *StringExpr) node() {}
func (e *StringExpr) expr() {}

// IdentExpr is a bare name reference.
type IdentExpr struct {
	Name string
}

func (e *IdentExpr) node() {}
func (e *IdentExpr) expr() {}

// IndexExpr represents obj[key].
type IndexExpr struct {
	Object Expr
	Key    Expr
}

func (e *IndexExpr) node() {}
func (e *IndexExpr) expr() {}

// DotExpr represents obj.field.
type DotExpr struct {
	Object Expr
	Field  string
}

func (e *DotExpr) node() {}
func (e *DotExpr) expr() {}

// CallExpr represents f(args).
type CallExpr struct {
	Func Expr
	Args []Expr
}

func (e *CallExpr) node() {}
func (e *CallExpr) expr() {}

// MethodCallExpr represents obj:m(args).
type MethodCallExpr struct {
	Object Expr
	Method string
	Args   []Expr
}

func (e *MethodCallExpr) node() {}
func (e *MethodCallExpr) expr() {}

// FunctionExpr represents function(params) ... end.
type FunctionExpr struct {
	Params   []string
	IsVararg bool
	Body     *Block
}

func (e *FunctionExpr) node() {}
func (e *FunctionExpr) expr() {}

// TableExpr is a table constructor.
type TableExpr struct {
	Entries []TableEntry
}

func (e *TableExpr) node() {}
func (e *TableExpr) expr() {}

// TableEntry is one entry of a table constructor.
type TableEntry interface {
	Node
	tableEntry()
}

// ArrayEntry is a positional entry: { value }.
type ArrayEntry struct {
	Value Expr
}

func (e *ArrayEntry) node()       {}
func (e *ArrayEntry) tableEntry() {}

// FieldEntry is a name-keyed entry: { name = value }.
type FieldEntry struct {
	Name  string
	Value Expr
}

func (e *FieldEntry) node()       {}
func (e *FieldEntry) tableEntry() {}

// IndexEntry is a bracket-keyed entry: { [key] = value }.
type IndexEntry struct {
	Key   Expr
	Value Expr
}

func (e *IndexEntry) node()       {}
func (e *IndexEntry) tableEntry() {}

// BinaryExpr represents left op right.
type BinaryExpr struct {
	Left  Expr
	Op    string
	Right Expr
}

func (e *BinaryExpr) node() {}
func (e *BinaryExpr) expr() {}

// UnaryExpr represents op operand.
type UnaryExpr struct {
	Op      string // "-", "not", "#", "~"
	Operand Expr
}

func (e *UnaryExpr) node() {}
func (e *UnaryExpr) expr() {}

// ParenExpr represents (inner). Parenthesization is explicit in the tree
// so rewrite rules can force precedence instead of relying on the printer.
type ParenExpr struct {
	Inner Expr
}

func (e *ParenExpr) node() {}
func (e *ParenExpr) expr() {}

// IfElseExpr is the Luau if-then-else expression. Removed by the
// remove_if_expression rule.
type IfElseExpr struct {
	Cond    Expr
	Then    Expr
	ElseIfs []IfElseClause
	Else    Expr
}

func (e *IfElseExpr) node() {}
func (e *IfElseExpr) expr() {}

// IfElseClause is one elseif branch of an if-expression.
type IfElseClause struct {
	Cond Expr
	Then Expr
}
