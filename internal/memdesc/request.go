package memdesc

import "fmt"

// Request is a logical memory: a name, its word count and bit-width,
// and the nonempty set of concurrent access patterns it must support.
// A Request is constructed once from the input file, planned exactly
// once, and emitted exactly once; nothing after construction mutates
// Words, Width or Ops.
type Request struct {
	Name  string
	Words int
	Width int
	Ops   []Operation
}

// NewRequest validates and builds a Request. It enforces the
// memory-level invariants: positive word count, positive width, and a
// nonempty operation list (each operation was already validated
// against Words by ParseOperation).
func NewRequest(name string, words, width int, ops []Operation) (*Request, error) {
	if words <= 0 {
		return nil, &FormatError{Context: name, Token: fmt.Sprint(words), Problem: "illegal number of words"}
	}
	if width <= 0 {
		return nil, &FormatError{Context: name, Token: fmt.Sprint(width), Problem: "illegal bit-width"}
	}
	if len(ops) == 0 {
		return nil, &FormatError{Context: name, Problem: "no operation specified"}
	}
	return &Request{Name: name, Words: words, Width: width, Ops: ops}, nil
}

// Summary renders the "<words> words, <width> bits <op> [<op> ...]" line the
// driver logs before planning a request.
func (r *Request) Summary() string {
	s := fmt.Sprintf("%d words, %d bits", r.Words, r.Width)
	for _, op := range r.Ops {
		s += " " + op.String()
	}
	return s
}
