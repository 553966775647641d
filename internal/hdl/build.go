package hdl

import (
	"fmt"

	"github.com/esp-tools/memgen/internal/memdesc"
	"github.com/esp-tools/memgen/internal/plan"
)

// builder accumulates the fixed quantities a wrapper module's signal
// names and slice ranges are derived from, so the per-section render
// functions below don't each recompute them.
type builder struct {
	name  string
	words int
	width int

	w, r int // write interfaces, read interfaces
	d, h, v, hh int
	needParallelRW bool
	bank           Bank
}

// Bank is the subset of a tech-library macro the emitter needs; it
// exists so this package doesn't import techlib just for one struct
// shape (plan.Plan.Bank already has the right fields, this just names
// them locally for readability inside build.go).
type Bank = struct {
	Name  string
	Words int
	Width int
	Ports int
	Area  float64
}

// Build translates a planned Memory Request into the wrapper module's
// AST, mirroring memgen.py's write_verilog method section by section:
// port list, bank/control declarations, the control-selection
// continuous assigns, the registered read-select always block, the
// per-bank-coordinate control generate block (with its six per-op
// routing kernels), the readback generate block, and the bank
// instantiation generate block with its same-address-two-port-write
// assertion.
func Build(req *memdesc.Request, p plan.Plan) *Module {
	b := &builder{
		name:           req.Name,
		words:          req.Words,
		width:          req.Width,
		w:              p.WriteInterfaces,
		r:              p.ReadInterfaces,
		d:              p.Duplication,
		h:              p.Distribution,
		v:              p.VBanks,
		hh:             p.HHBanks,
		needParallelRW: p.NeedParallelRW,
		bank: Bank{
			Name: p.Bank.Name, Words: p.Bank.Words, Width: p.Bank.Width,
			Ports: p.Bank.Ports, Area: p.Bank.Area,
		},
	}

	m := &Module{Name: b.name}
	m.Ports = b.ports()
	m.Decls = b.decls()

	var body []Node
	body = append(body, b.checkAccessBlock())
	body = append(body, b.ctrlSelectAssigns()...)
	body = append(body, b.readSelectRegister())
	body = append(body, b.handleOpsGenerate(req.Ops))
	body = append(body, b.readbackGenerate())
	body = append(body, b.bankInstanceGenerate())
	m.Body = body

	return m
}

func (b *builder) addrWidth() int      { return log2Ceil(b.words) }
func (b *builder) bankAddrWidth() int  { return log2Ceil(b.bank.Words) }
func (b *builder) selDWidth() int      { return log2Ceil(b.d) }
func (b *builder) selHWidth() int      { return log2Ceil(b.h) }
func (b *builder) selVWidth() int      { return log2Ceil(b.v) }

func log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}
	bits, v := 0, 1
	for v < n {
		v <<= 1
		bits++
	}
	return bits
}

func vecRange(bits int) string {
	if bits <= 1 {
		return ""
	}
	return fmt.Sprintf("[%d:0]", bits-1)
}

// selRange renders a register width as "[bits-1:0]", except a
// single-valued dimension (count <= 1) always renders as "[0:0]" —
// memgen.py special-cases this so log2Ceil(1)==0 never produces the
// invalid "[-1:0]".
func selRange(count int) string {
	if count <= 1 {
		return "[0:0]"
	}
	return fmt.Sprintf("[%d:0]", log2Ceil(count)-1)
}

func (b *builder) ports() []Port {
	var ports []Port
	for i := 0; i < b.w; i++ {
		ports = append(ports,
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_CE%d", b.name, i), Width: 1},
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_A%d", b.name, i), Width: b.addrWidth()},
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_D%d", b.name, i), Width: b.width},
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_WE%d", b.name, i), Width: 1},
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_WEM%d", b.name, i), Width: b.width},
		)
	}
	for i := b.w; i < b.w+b.r; i++ {
		ports = append(ports,
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_CE%d", b.name, i), Width: 1},
			Port{Dir: DirInput, Name: fmt.Sprintf("%s_A%d", b.name, i), Width: b.addrWidth()},
			Port{Dir: DirOutput, Name: fmt.Sprintf("%s_Q%d", b.name, i), Width: b.width},
		)
	}
	return ports
}

// bankDims renders the five-dimensional "[D-1:0][H-1:0][V-1:0][HH-1:0][Ports-1:0]"
// suffix shared by every bank_* array declaration.
func (b *builder) bankDims() []string {
	return []string{
		fmt.Sprintf("[%d:0]", b.d-1), fmt.Sprintf("[%d:0]", b.h-1),
		fmt.Sprintf("[%d:0]", b.v-1), fmt.Sprintf("[%d:0]", b.hh-1),
		fmt.Sprintf("[%d:0]", b.bank.Ports-1),
	}
}

func (b *builder) decls() []Decl {
	dims := b.bankDims()
	ctrlDims := []string{fmt.Sprintf("[%d:0]", b.w+b.r-1)}

	decls := []Decl{
		{Kind: DeclReg, Name: "bank_CE", ArrayDims: dims},
		{Kind: DeclReg, Name: "bank_A", BitRange: vecRange(b.bankAddrWidth()), ArrayDims: dims},
		{Kind: DeclReg, Name: "bank_D", BitRange: vecRange(b.bank.Width), ArrayDims: dims},
		{Kind: DeclReg, Name: "bank_WE", ArrayDims: dims},
		{Kind: DeclReg, Name: "bank_WEM", BitRange: vecRange(b.bank.Width), ArrayDims: dims},
		{Kind: DeclWire, Name: "bank_Q", BitRange: vecRange(b.bank.Width), ArrayDims: dims},
		{Kind: DeclWire, Name: "ctrlh", BitRange: selRange(b.h), ArrayDims: ctrlDims},
		{Kind: DeclWire, Name: "ctrlv", BitRange: selRange(b.v), ArrayDims: ctrlDims},
	}

	// ctrld/seld/selh/selv only ever address the read-interface range
	// [W+R-1:W]; when R==0 that range is empty (W+R-1 < W), so
	// memgen.py's literal "[W+R-1:W]" collapses to an invalid
	// high<low slice. The read-select registers have no reader when
	// there are no read interfaces, so they're simply not declared.
	if b.r > 0 {
		selDims := []string{fmt.Sprintf("[%d:%d]", b.w+b.r-1, b.w)}
		decls = append(decls,
			Decl{Kind: DeclWire, Name: "ctrld", BitRange: selRange(b.d), ArrayDims: selDims},
			Decl{Kind: DeclReg, Name: "seld", BitRange: selRange(b.d), ArrayDims: selDims},
			Decl{Kind: DeclReg, Name: "selh", BitRange: selRange(b.h), ArrayDims: selDims},
			Decl{Kind: DeclReg, Name: "selv", BitRange: selRange(b.v), ArrayDims: selDims},
		)
	}

	return decls
}

// checkAccessBlock declares the port-conflict tracking array and the
// check_access task it backs, both guarded to simulation only.
func (b *builder) checkAccessBlock() Node {
	dims := b.bankDims()
	task := TaskDecl{
		Name:   "check_access",
		Inputs: []string{"iface", "d", "h", "v", "hh", "p"},
		Body: []Stmt{
			IfStmt{
				Cond: "(check_bank_access[d][h][v][hh][p] != -1) && (check_bank_access[d][h][v][hh][p] != iface)",
				Stmts: []Stmt{
					RawStmt{`$display("ASSERTION FAILED in %m: port conflict on bank", h, "h", v, "v", hh, "hh", " for port", p, " involving interfaces", check_bank_access[d][h][v][hh][p], iface);`},
					RawStmt{"$finish;"},
				},
				Else: []Stmt{
					RawStmt{"check_bank_access[d][h][v][hh][p] = iface;"},
				},
			},
		},
	}
	return TranslateOff{Inner: []Node{
		Decl{Kind: DeclInteger, Name: "check_bank_access", ArrayDims: dims},
		task,
	}}
}

func (b *builder) ctrlSelectAssigns() []Node {
	var nodes []Node
	if b.r > 0 {
		for ri := b.w; ri < b.w+b.r; ri++ {
			rhs := "0"
			if b.d > 1 {
				rhs = fmt.Sprintf("%d", ri%b.d)
			}
			nodes = append(nodes, ContAssign{LHS: fmt.Sprintf("ctrld[%d]", ri), RHS: rhs})
		}
	}
	for ri := 0; ri < b.w+b.r; ri++ {
		rhs := "0"
		if b.h > 1 {
			rhs = fmt.Sprintf("%s_A%d[%d:0]", b.name, ri, b.selHWidth()-1)
		}
		nodes = append(nodes, ContAssign{LHS: fmt.Sprintf("ctrlh[%d]", ri), RHS: rhs})
	}
	for ri := 0; ri < b.w+b.r; ri++ {
		rhs := "0"
		if b.v > 1 {
			hi := b.bankAddrWidth() + b.selHWidth() + b.selVWidth() - 1
			lo := b.bankAddrWidth() + b.selHWidth()
			rhs = fmt.Sprintf("%s_A%d[%d:%d]", b.name, ri, hi, lo)
		}
		nodes = append(nodes, ContAssign{LHS: fmt.Sprintf("ctrlv[%d]", ri), RHS: rhs})
	}
	return nodes
}

func (b *builder) readSelectRegister() Node {
	var stmts []Stmt
	for ri := b.w; ri < b.w+b.r; ri++ {
		stmts = append(stmts,
			RawStmt{fmt.Sprintf("seld[%d] <= ctrld[%d];", ri, ri)},
			RawStmt{fmt.Sprintf("selh[%d] <= ctrlh[%d];", ri, ri)},
			RawStmt{fmt.Sprintf("selv[%d] <= ctrlv[%d];", ri, ri)},
		)
	}
	return AlwaysBlock{Edge: "posedge CLK", Stmts: stmts}
}

// bankAddrRange and hhRange are the two slice expressions every
// per-op routing kernel and the readback block index into.
func (b *builder) bankAddrRange() string {
	hi := b.addrWidth() - 1
	if alt := b.bankAddrWidth() + b.selHWidth() - 1; alt < hi {
		hi = alt
	}
	return fmt.Sprintf("[%d:%d]", hi, b.selHWidth())
}

func (b *builder) hhRange() string {
	return fmt.Sprintf("[%d * (hh + 1) - 1:%d * hh]", b.bank.Width, b.bank.Width)
}

func (b *builder) hhLsbExpr() string { return fmt.Sprintf("%d * hh", b.bank.Width) }

// ctrlAssignment renders one interface's bank-port driving assignment,
// guarded by the ctrlh/ctrlv match for its generate coordinate and, for
// modulo-pattern kernels (nonzero parallelism), further gated on
// "h % min(parallelism, H) == iface % H". It mirrors
// memgen.py's __write_ctrl_assignment exactly.
func (b *builder) ctrlAssignment(bankAddrRange, hhRange string, dupSet, port, iface int, isWrite bool, parallelism int) Stmt {
	var inner []Stmt
	inner = append(inner, TranslateOffStmt{Stmts: []Stmt{
		RawStmt{fmt.Sprintf("check_access(%d, %d, h, v, hh, %d);", iface, dupSet, port)},
	}})
	inner = append(inner,
		RawStmt{fmt.Sprintf("bank_CE[%d][h][v][hh][%d] = %s_CE%d;", dupSet, port, b.name, iface)},
		RawStmt{fmt.Sprintf("bank_A[%d][h][v][hh][%d] = %s_A%d%s;", dupSet, port, b.name, iface, bankAddrRange)},
	)
	if isWrite {
		inner = append(inner,
			RawStmt{fmt.Sprintf("bank_D[%d][h][v][hh][%d] = %s_D%d%s;", dupSet, port, b.name, iface, hhRange)},
			RawStmt{fmt.Sprintf("bank_WE[%d][h][v][hh][%d] = %s_WE%d;", dupSet, port, b.name, iface)},
			RawStmt{fmt.Sprintf("bank_WEM[%d][h][v][hh][%d] = %s_WEM%d%s;", dupSet, port, b.name, iface, hhRange)},
		)
	}

	guard := IfStmt{
		Cond:  fmt.Sprintf("ctrlh[%d] == h && ctrlv[%d] == v && %s_CE%d == 1'b1", iface, iface, b.name, iface),
		Stmts: inner,
	}
	if parallelism == 0 {
		return guard
	}

	normalizedIface := iface
	if !isWrite {
		normalizedIface -= b.w
	}
	normalizedIface = ((normalizedIface % b.h) + b.h) % b.h
	normalizedParallelism := parallelism
	if b.h < normalizedParallelism {
		normalizedParallelism = b.h
	}
	return IfStmt{
		Cond:  fmt.Sprintf("h %% %d == %d", normalizedParallelism, normalizedIface),
		Stmts: []Stmt{guard},
	}
}

// handleOpsGenerate is the triple-nested (h, v, hh) combinational
// generate block that drives every bank_* control array: a default
// zeroing pass, then one routing kernel per operation.
func (b *builder) handleOpsGenerate(ops []memdesc.Operation) Node {
	bankAddrRange := b.bankAddrRange()
	hhRange := b.hhRange()

	var stmts []Stmt
	for d := 0; d < b.d; d++ {
		for p := 0; p < b.bank.Ports; p++ {
			stmts = append(stmts, TranslateOffStmt{Stmts: []Stmt{
				RawStmt{fmt.Sprintf("check_bank_access[%d][h][v][hh][%d] = -1;", d, p)},
			}})
			stmts = append(stmts,
				RawStmt{fmt.Sprintf("bank_CE[%d][h][v][hh][%d] = 0;", d, p)},
				RawStmt{fmt.Sprintf("bank_A[%d][h][v][hh][%d] = 0;", d, p)},
				RawStmt{fmt.Sprintf("bank_D[%d][h][v][hh][%d] = 0;", d, p)},
				RawStmt{fmt.Sprintf("bank_WE[%d][h][v][hh][%d] = 0;", d, p)},
				RawStmt{fmt.Sprintf("bank_WEM[%d][h][v][hh][%d] = 0;", d, p)},
			)
		}
	}

	for _, op := range ops {
		stmts = append(stmts, CommentStmt{Text: "Handle " + op.String()})
		stmts = append(stmts, b.opKernel(op, bankAddrRange, hhRange)...)
	}

	always := AlwaysBlock{Edge: "*", Label: "handle_ops", Stmts: stmts}
	return GenerateFor{Var: "h", Bound: b.h, Label: "gen_ctrl_hbanks", Body: []Node{
		GenerateFor{Var: "v", Bound: b.v, Label: "gen_ctrl_vbanks", Body: []Node{
			GenerateFor{Var: "hh", Bound: b.hh, Label: "gen_ctrl_hhbanks", Body: []Node{always}},
		}},
	}}
}

// opKernel dispatches one operation to the routing pattern matching
// its read/write count and pattern, mirroring each of the six "if"
// blocks in memgen.py's write_verilog loop body. An operation may
// match none (e.g. a 1wu:0r op: its single unknown-pattern write fails
// the "== 2" guard and every modulo-pattern guard below, so it gets no
// kernel beyond the default zeroing) or exactly one of these patterns;
// they are mutually exclusive by construction (see memdesc.ParseOperation).
func (b *builder) opKernel(op memdesc.Operation, bankAddrRange, hhRange string) []Stmt {
	var stmts []Stmt
	ports := b.bank.Ports

	switch {
	case op.WritePattern == memdesc.Unknown && op.WriteCount == 2:
		for d := 0; d < b.d; d++ {
			stmts = append(stmts, CommentStmt{Text: fmt.Sprintf("Duplicated bank set %d", d)})
			for wi := 0; wi < op.WriteCount; wi++ {
				p := wi % ports
				stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, d, p, wi, true, 0))
			}
		}

	case op.ReadCount == 0 && op.WritePattern == memdesc.Modulo:
		for d := 0; d < b.d; d++ {
			stmts = append(stmts, CommentStmt{Text: fmt.Sprintf("Duplicated bank set %d", d)})
			for wi := 0; wi < op.WriteCount; wi++ {
				p := 0
				if !b.needParallelRW {
					p = (wi/b.h + wi%ports) % ports
				}
				stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, d, p, wi, true, op.WriteCount))
			}
		}

	case op.WriteCount == 0 && op.ReadPattern == memdesc.Modulo:
		stmts = append(stmts, CommentStmt{Text: "Always choose duplicated bank set 0"})
		for ri := 0; ri < op.ReadCount; ri++ {
			p := 1
			if !b.needParallelRW {
				p = (ri/b.h + ri%ports) % ports
			}
			stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, 0, p, ri+b.w, false, op.ReadCount))
		}

	case op.WriteCount > 0 && op.ReadCount > 0 && op.WritePattern == memdesc.Modulo && op.ReadPattern == memdesc.Modulo:
		for d := 0; d < b.d; d++ {
			stmts = append(stmts, CommentStmt{Text: fmt.Sprintf("Duplicated bank set %d", d)})
			for wi := 0; wi < op.WriteCount; wi++ {
				stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, d, 0, wi, true, op.WriteCount))
			}
		}
		stmts = append(stmts, CommentStmt{Text: "Always choose duplicated bank set 0"})
		for ri := 0; ri < op.ReadCount; ri++ {
			stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, 0, 1, ri+b.w, false, op.ReadCount))
		}

	case op.ReadCount > 1 && op.WriteCount == 0 && op.ReadPattern == memdesc.Unknown:
		for ri := 0; ri < op.ReadCount; ri++ {
			p := (ri/b.d + ri%ports) % ports
			stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, ri%b.d, p, ri+b.w, false, 0))
		}

	case op.ReadCount > 1 && op.WriteCount > 0 && op.ReadPattern == memdesc.Unknown && op.WritePattern == memdesc.Modulo:
		for d := 0; d < b.d; d++ {
			stmts = append(stmts, CommentStmt{Text: fmt.Sprintf("Duplicated bank set %d", d)})
			for wi := 0; wi < op.WriteCount; wi++ {
				stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, d, 0, wi, true, op.WriteCount))
			}
		}
		for ri := 0; ri < op.ReadCount; ri++ {
			stmts = append(stmts, b.ctrlAssignment(bankAddrRange, hhRange, ri%b.d, 1, ri+b.w, false, 0))
		}
	}

	return stmts
}

// readbackGenerate is the per-HH-column Q assignment, narrowing the
// last column's slice when width isn't a multiple of the bank's width.
func (b *builder) readbackGenerate() Node {
	hhLastMsb := b.width - 1
	if alt := b.hh*b.bank.Width - 1; alt < hhLastMsb {
		hhLastMsb = alt
	}
	hhLastRange := fmt.Sprintf("[%d:%s]", hhLastMsb, b.hhLsbExpr())

	var body []Node
	for ri := b.w; ri < b.w+b.r; ri++ {
		p := 1
		switch {
		case b.bank.Ports == 1:
			p = 0
		case !b.needParallelRW:
			p = ri % b.bank.Ports
		}
		sel := fmt.Sprintf("bank_Q[seld[%d]][selh[%d]][selv[%d]][hh]", ri, ri, ri)
		lastLow := (b.width - 1) % b.bank.Width
		body = append(body, GenIf{
			Cond: fmt.Sprintf("hh == %d && (hh + 1) * %d > %d", b.hh-1, b.bank.Width, b.width),
			ThenAssign: ContAssign{
				LHS: fmt.Sprintf("%s_Q%d%s", b.name, ri, hhLastRange),
				RHS: fmt.Sprintf("%s[%d][%d:0]", sel, p, lastLow),
			},
			ElseAssign: ContAssign{
				LHS: fmt.Sprintf("%s_Q%d%s", b.name, ri, b.hhRange()),
				RHS: fmt.Sprintf("%s[%d]", sel, p),
			},
		})
	}

	return GenerateFor{Var: "hh", Bound: b.hh, Label: "gen_q_assign_hhbanks", Body: body}
}

// bankInstanceGenerate is the four-level nested generate loop
// instantiating one bank macro per (d, h, v, hh) coordinate, each
// guarded by the same-address-two-port-write assertion when the
// chosen macro has two ports (a single-port macro can never see two
// simultaneous writers, so the check — and the always block it would
// otherwise leave unterminated — is skipped entirely).
func (b *builder) bankInstanceGenerate() Node {
	var conns []PortConn
	conns = append(conns, PortConn{Port: "CLK", Expr: "CLK"})
	for p := 0; p < b.bank.Ports; p++ {
		conns = append(conns,
			PortConn{Port: fmt.Sprintf("CE%d", p), Expr: fmt.Sprintf("bank_CE[d][h][v][hh][%d]", p)},
			PortConn{Port: fmt.Sprintf("A%d", p), Expr: fmt.Sprintf("bank_A[d][h][v][hh][%d]", p)},
			PortConn{Port: fmt.Sprintf("D%d", p), Expr: fmt.Sprintf("bank_D[d][h][v][hh][%d]", p)},
			PortConn{Port: fmt.Sprintf("WE%d", p), Expr: fmt.Sprintf("bank_WE[d][h][v][hh][%d]", p)},
			PortConn{Port: fmt.Sprintf("WEM%d", p), Expr: fmt.Sprintf("bank_WEM[d][h][v][hh][%d]", p)},
			PortConn{Port: fmt.Sprintf("Q%d", p), Expr: fmt.Sprintf("bank_Q[d][h][v][hh][%d]", p)},
		)
	}
	inst := Instance{Module: b.bank.Name, Name: "bank_i", Conns: conns}

	var body []Node
	body = append(body, inst)
	if b.bank.Ports == 2 {
		cond := "(bank_CE[d][h][v][hh][0] & bank_CE[d][h][v][hh][1]) && " +
			"(bank_WE[d][h][v][hh][0] | bank_WE[d][h][v][hh][1]) && " +
			"(bank_A[d][h][v][hh][0] == bank_A[d][h][v][hh][1])"
		assertion := AlwaysBlock{Edge: "posedge CLK", Stmts: []Stmt{
			IfStmt{Cond: cond, Stmts: []Stmt{
				RawStmt{`$display("ASSERTION FAILED in %m: address conflict on bank", h, "h", v, "v", hh, "hh");`},
				RawStmt{"$finish;"},
			}},
		}}
		body = append(body, TranslateOff{Inner: []Node{assertion}})
	}

	return GenerateFor{Var: "d", Bound: b.d, Label: "gen_wires_dbanks", Body: []Node{
		GenerateFor{Var: "h", Bound: b.h, Label: "gen_wires_hbanks", Body: []Node{
			GenerateFor{Var: "v", Bound: b.v, Label: "gen_wires_vbanks", Body: []Node{
				GenerateFor{Var: "hh", Bound: b.hh, Label: "gen_wires_hhbanks", Body: body},
			}},
		}},
	}}
}
