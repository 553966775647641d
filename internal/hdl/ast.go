// Package hdl builds an intermediate AST for the wrapper module a
// planned Memory Request compiles to, then pretty-prints that AST as
// Verilog-2001 text. Building an AST first keeps indentation, slice
// arithmetic and assertion-guard placement in one place, and makes
// the emitter testable without parsing HDL back out of a string.
package hdl

// Module is the top-level AST node: one wrapper module, named after
// the Memory Request it implements.
type Module struct {
	Name  string
	Ports []Port
	Decls []Decl
	Body  []Node
}

// PortDir is a module port's direction.
type PortDir int

const (
	DirInput PortDir = iota
	DirOutput
)

// Port is one scalar or vector module port. Width <= 1 renders as a
// bare scalar; Width > 1 renders as "[Width-1:0]".
type Port struct {
	Dir   PortDir
	Name  string
	Width int
}

// DeclKind distinguishes reg/wire net declarations.
type DeclKind int

const (
	DeclReg DeclKind = iota
	DeclWire
	DeclInteger
)

// Decl is an internal net declaration, possibly multi-dimensional
// (the five-dimensional [D][H][V][HH][P] bank array and the
// ctrl/sel routing arrays all render through this one node type).
type Decl struct {
	Kind      DeclKind
	Name      string
	BitRange  string   // e.g. "[31:0]", "" for a scalar
	ArrayDims []string // e.g. []string{"[1:0]","[3:0]","[0:0]","[0:0]","[1:0]"}
}

// node lets a Decl also appear inline in a Module's Body (wrapped in a
// TranslateOff block, as the check_bank_access conflict array is).
func (Decl) node() {}

// Node is anything that can appear in a module's body: a continuous
// assignment, a generate-for loop, a bank instantiation, or a
// translate-off-guarded block of any of the above.
type Node interface{ node() }

// ContAssign is a single "assign lhs = rhs;" continuous assignment.
type ContAssign struct {
	LHS string
	RHS string
}

func (ContAssign) node() {}

// AlwaysBlock is a "always @(edge) begin ... end" procedural block.
// Edge is e.g. "posedge CLK" or "*" for a combinational block.
type AlwaysBlock struct {
	Edge  string
	Label string // optional named block ("begin : label"), "" for none
	Stmts []Stmt
}

func (AlwaysBlock) node() {}

// GenerateFor is one level of a "generate for (v = 0; v < N; v = v+1)
// begin : label ... end" loop. Body may itself contain nested
// GenerateFor nodes.
type GenerateFor struct {
	Var   string
	Bound int
	Label string
	Body  []Node
}

func (GenerateFor) node() {}

// Instance is a single module/macro instantiation with named port
// connections.
type Instance struct {
	Module string
	Name   string
	Conns  []PortConn
}

func (Instance) node() {}

// PortConn is one ".port(expr)" connection of an Instance.
type PortConn struct {
	Port string
	Expr string
}

// TranslateOff wraps Inner in "// synthesis translate_off" /
// "// synthesis translate_on" guards. These are the compile-time
// assertion regions: they never affect synthesized logic, only
// simulation.
type TranslateOff struct {
	Inner []Node
}

func (TranslateOff) node() {}

// Stmt is a statement inside an AlwaysBlock.
type Stmt interface{ stmt() }

// RawStmt is a single already-formatted procedural statement, used
// for the bank-port default/driven assignments whose right-hand sides
// are built from per-interface slice arithmetic (see build.go).
type RawStmt struct {
	Text string
}

func (RawStmt) stmt() {}

// CommentStmt is a one-line "// ..." comment, used the way the
// original generator annotates which duplicated bank set or operation
// a block of assignments belongs to.
type CommentStmt struct {
	Text string
}

func (CommentStmt) stmt() {}

// IfStmt is a conditional guard inside a procedural block. Stmts may
// themselves be IfStmt for nested guards (e.g. the h-mod-parallelism
// gate wrapping the per-interface ctrlh/ctrlv/CE guard). Else is
// optional (nil for a bare if).
type IfStmt struct {
	Cond  string
	Stmts []Stmt
	Else  []Stmt
}

func (IfStmt) stmt() {}

// GenIf is a generate-time conditional pair of continuous assignments
// ("if (cond) assign ...; else assign ...;") used by the readback
// block to narrow the last HH column when width isn't a multiple of
// the macro's width.
type GenIf struct {
	Cond       string
	ThenAssign ContAssign
	ElseAssign ContAssign
}

func (GenIf) node() {}

// TranslateOffStmt wraps statements in simulation-only guards within a
// procedural block (used for the check_access call sites and the
// per-port conflict-register reset).
type TranslateOffStmt struct {
	Stmts []Stmt
}

func (TranslateOffStmt) stmt() {}

// TaskDecl is a Verilog task declaration, used for check_access. It is
// a module-body Node (declared once, ahead of the generate blocks),
// not a procedural Stmt.
type TaskDecl struct {
	Name   string
	Inputs []string
	Body   []Stmt
}

func (TaskDecl) node() {}
