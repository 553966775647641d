package hdl

import (
	"fmt"
	"strings"
)

const indentUnit = "  "

// writer accumulates rendered Verilog text with indentation tracking.
type writer struct {
	buf    strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	w.buf.WriteString(strings.Repeat(indentUnit, w.indent))
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *writer) blank() { w.buf.WriteByte('\n') }

// Render pretty-prints m as Verilog-2001 source text, including the
// generator header comment and the `1 ps / 1 ps` timescale directive.
func Render(m *Module) []byte {
	w := &writer{}
	w.line("/**")
	w.line(" * Generated by memgen, the parameterized SRAM memory compiler.")
	w.line(" */")
	w.blank()
	w.line("`timescale  1 ps / 1 ps")
	w.blank()
	w.renderModuleHeader(m)
	w.renderDecls(m.Decls)
	for _, n := range m.Body {
		w.renderNode(n)
	}
	w.line("endmodule")
	return []byte(w.buf.String())
}

func (w *writer) renderModuleHeader(m *Module) {
	w.line("module %s(", m.Name)
	w.indent++
	clkSep := ","
	if len(m.Ports) == 0 {
		clkSep = ""
	}
	w.line("CLK%s", clkSep)
	for i, p := range m.Ports {
		sep := ","
		if i == len(m.Ports)-1 {
			sep = ""
		}
		w.line("%s%s", p.Name, sep)
	}
	w.indent--
	w.line(");")
	w.indent++
	w.line("input CLK;")
	for _, p := range m.Ports {
		dir := "input"
		if p.Dir == DirOutput {
			dir = "output"
		}
		if p.Width > 1 {
			w.line("%s [%d:0] %s;", dir, p.Width-1, p.Name)
		} else {
			w.line("%s %s;", dir, p.Name)
		}
	}
	w.line("genvar d, h, v, hh;")
	w.blank()
	w.indent--
}

func (w *writer) renderDecls(decls []Decl) {
	w.indent++
	for _, d := range decls {
		w.renderDeclLine(d)
	}
	w.blank()
	w.indent--
}

func (w *writer) renderDeclLine(d Decl) {
	kind := "reg "
	switch d.Kind {
	case DeclWire:
		kind = "wire"
	case DeclInteger:
		kind = "integer"
	}
	dims := strings.Join(d.ArrayDims, "")
	if d.BitRange != "" {
		w.line("%s %s %s%s;", kind, d.BitRange, d.Name, dims)
	} else {
		w.line("%s %s%s;", kind, d.Name, dims)
	}
}

func (w *writer) renderNode(n Node) {
	switch v := n.(type) {
	case Decl:
		w.indent++
		w.renderDeclLine(v)
		w.indent--
	case ContAssign:
		w.indent++
		w.line("assign %s = %s;", v.LHS, v.RHS)
		w.indent--
	case TaskDecl:
		w.indent++
		w.renderTaskBody(v)
		w.indent--
	case AlwaysBlock:
		w.renderAlways(v, 1)
	case GenerateFor:
		w.indent++
		w.line("generate")
		w.renderGenerateFor(v)
		w.line("endgenerate")
		w.blank()
		w.indent--
	case Instance:
		w.indent++
		w.renderInstance(v)
		w.indent--
	case TranslateOff:
		w.indent++
		w.line("// synthesis translate_off")
		w.indent--
		for _, inner := range v.Inner {
			w.renderNode(inner)
		}
		w.indent++
		w.line("// synthesis translate_on")
		w.blank()
		w.indent--
	case GenIf:
		w.indent++
		w.renderGenIf(v)
		w.indent--
	}
}

func (w *writer) renderGenIf(g GenIf) {
	w.line("if (%s)", g.Cond)
	w.indent++
	w.line("assign %s = %s;", g.ThenAssign.LHS, g.ThenAssign.RHS)
	w.indent--
	w.line("else")
	w.indent++
	w.line("assign %s = %s;", g.ElseAssign.LHS, g.ElseAssign.RHS)
	w.indent--
}

func (w *writer) renderGenerateFor(g GenerateFor) {
	w.indent++
	w.line("for (%s = 0; %s < %d; %s = %s + 1) begin : %s", g.Var, g.Var, g.Bound, g.Var, g.Var, g.Label)
	for _, body := range g.Body {
		switch b := body.(type) {
		case GenerateFor:
			w.renderGenerateFor(b)
		case AlwaysBlock:
			w.renderAlways(b, w.indent+1)
		case Instance:
			w.renderInstance(b)
		case TranslateOff:
			w.line("// synthesis translate_off")
			for _, inner := range b.Inner {
				w.renderNode(inner)
			}
			w.line("// synthesis translate_on")
		case GenIf:
			w.renderGenIf(b)
		}
	}
	w.line("end")
	w.indent--
}

func (w *writer) renderAlways(a AlwaysBlock, depth int) {
	save := w.indent
	w.indent = depth
	if a.Label != "" {
		w.line("always @(%s) begin : %s", a.Edge, a.Label)
	} else {
		w.line("always @(%s) begin", a.Edge)
	}
	w.indent++
	for _, s := range a.Stmts {
		w.renderStmt(s)
	}
	w.indent--
	w.line("end")
	w.blank()
	w.indent = save
}

func (w *writer) renderStmt(s Stmt) {
	switch v := s.(type) {
	case RawStmt:
		w.line("%s", v.Text)
	case CommentStmt:
		w.line("// %s", v.Text)
	case IfStmt:
		w.line("if (%s) begin", v.Cond)
		w.indent++
		for _, inner := range v.Stmts {
			w.renderStmt(inner)
		}
		w.indent--
		if len(v.Else) == 0 {
			w.line("end")
		} else {
			w.line("end")
			w.line("else begin")
			w.indent++
			for _, inner := range v.Else {
				w.renderStmt(inner)
			}
			w.indent--
			w.line("end")
		}
	case TranslateOffStmt:
		w.line("// synthesis translate_off")
		for _, inner := range v.Stmts {
			w.renderStmt(inner)
		}
		w.line("// synthesis translate_on")
	}
}

func (w *writer) renderTaskBody(v TaskDecl) {
	w.line("task %s;", v.Name)
	w.indent++
	for _, in := range v.Inputs {
		w.line("input integer %s;", in)
	}
	w.line("begin")
	w.indent++
	for _, inner := range v.Body {
		w.renderStmt(inner)
	}
	w.indent--
	w.line("end")
	w.indent--
	w.line("endtask")
	w.blank()
}

func (w *writer) renderInstance(inst Instance) {
	w.line("%s %s(", inst.Module, inst.Name)
	w.indent++
	for i, c := range inst.Conns {
		sep := ","
		if i == len(inst.Conns)-1 {
			sep = ""
		}
		w.line(".%s(%s)%s", c.Port, c.Expr, sep)
	}
	w.indent--
	w.line(");")
	w.blank()
}
