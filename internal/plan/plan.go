// Package plan implements the Banking Planner: the three-pass
// algorithm that turns a Memory Request's operation list into
// replication factors (duplication, horizontal distribution, vertical
// stacking, bit-width stacking) and picks the cheapest SRAM macro from
// the technology library that can realize them.
package plan

import (
	"fmt"
	"math"

	"github.com/esp-tools/memgen/internal/memdesc"
	"github.com/esp-tools/memgen/internal/techlib"
)

// Plan is the Banking Planner's output for one Memory Request: the
// derived interface counts, replication factors, and the chosen
// macro. It is attached to a Request by composition rather than by
// mutating the Request in place.
type Plan struct {
	ReadInterfaces  int
	WriteInterfaces int
	NeedParallelRW  bool
	NeedDualPort    bool

	// Duplication is the number of identical bank-array copies (D).
	Duplication int
	// Distribution is the number of address-interleaved banks (H).
	Distribution int
	// VBanks is the number of banks stacked by address range (V).
	VBanks int
	// HHBanks is the number of banks stacked by bit slice (HH).
	HHBanks int

	Bank techlib.Macro
	Area float64
}

// NoSuitableMacroError reports that no library macro can realize a
// request's dual-port requirement. It is fatal (exit 2).
type NoSuitableMacroError struct {
	Request string
}

func (e *NoSuitableMacroError) Error() string {
	return fmt.Sprintf("memory %q: no SRAM macro in the technology library satisfies its port requirements", e.Request)
}

// contribution is an op's individual pull on the duplication and
// distribution factors; the planner combines these across all
// operations with max — never by mutating planner fields inside the
// per-op loop.
type contribution struct {
	D int
	H int
}

// Compute runs the three banking-planner passes — interface and
// port-capability inference, per-op duplication/distribution
// contribution, then macro selection by minimal area — against req
// and lib, returning the resulting Plan or a NoSuitableMacroError if
// the library holds no usable macro.
func Compute(req *memdesc.Request, lib techlib.Library) (Plan, error) {
	var p Plan

	// Pass 1 — interface & port-capability inference.
	for _, op := range req.Ops {
		if op.ReadCount > p.ReadInterfaces {
			p.ReadInterfaces = op.ReadCount
		}
		if op.WriteCount > p.WriteInterfaces {
			p.WriteInterfaces = op.WriteCount
		}
		if op.ReadCount > 0 && op.WriteCount > 0 {
			p.NeedParallelRW = true
		}
	}
	for _, op := range req.Ops {
		twoWU := op.WriteCount == 2 && op.WritePattern == memdesc.Unknown
		repl := !p.NeedParallelRW && (op.ReadCount > 1 || op.WriteCount > 1)
		if p.NeedParallelRW || twoWU || repl {
			p.NeedDualPort = true
		}
	}

	// Pass 2 — per-op duplication and distribution contributions.
	for _, op := range req.Ops {
		c := opContribution(op, p.NeedParallelRW)
		if c.D > p.Duplication {
			p.Duplication = c.D
		}
		if c.H > p.Distribution {
			p.Distribution = c.H
		}
	}
	if p.Duplication < 1 {
		p.Duplication = 1
	}
	if p.Distribution < 1 {
		p.Distribution = 1
	}

	// Pass 3 — macro selection (vertical/width stacking).
	wordsPerHBank := ceilDiv(req.Words, p.Distribution)
	best := math.Inf(1)
	found := false
	for _, m := range lib {
		if p.NeedDualPort && m.Ports < 2 {
			continue
		}
		hh := ceilDiv(req.Width, m.Width)
		v := ceilDiv(wordsPerHBank, m.Words)
		// NOTE: this intentionally over-counts area when a duplicated
		// set (D>1, from an unknown-pattern op) is written to but
		// never read by the same request — every duplicated copy is
		// costed even though only the copies actually read carry
		// useful capacity. Preserved from memgen.py's behavior, not
		// "fixed".
		area := float64(p.Duplication) * float64(p.Distribution) * float64(v) * float64(hh) * m.Area
		if best > area {
			best = area
			p.VBanks = v
			p.HHBanks = hh
			p.Bank = m
			p.Area = area
			found = true
		}
	}
	if !found {
		return Plan{}, &NoSuitableMacroError{Request: req.Name}
	}

	return p, nil
}

// opContribution computes one operation's {D, H} pull: the
// duplication and distribution factor this single op requires,
// before combining across all ops with max.
func opContribution(op memdesc.Operation, needParallelRW bool) contribution {
	c := contribution{D: 1, H: 1}

	if op.ReadPattern == memdesc.Unknown && op.ReadCount > 1 {
		if op.WriteCount == 0 {
			c.D = ceilDiv(op.ReadCount, 2)
		} else {
			c.D = op.ReadCount
		}
	}
	if op.WritePattern == memdesc.Unknown && op.WriteCount > 1 {
		if op.ReadCount == 0 {
			c.D = ceilDiv(op.WriteCount, 2)
		} else if op.WriteCount > c.D {
			c.D = op.WriteCount
		}
	}

	if op.ReadPattern == memdesc.Modulo && op.ReadCount > 1 {
		if op.WriteCount != 0 || needParallelRW {
			c.H = op.ReadCount
		} else {
			c.H = op.ReadCount / 2
		}
	}
	if op.WritePattern == memdesc.Modulo && op.WriteCount > 1 {
		if op.ReadCount != 0 || needParallelRW {
			if op.WriteCount > c.H {
				c.H = op.WriteCount
			}
		} else {
			c.H = op.WriteCount / 2
		}
	}

	return c
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
