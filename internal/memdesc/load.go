package memdesc

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// IOError wraps a failure to open or read the request file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "cannot read request file " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// LoadRequests reads the request file at path, one logical memory per
// non-blank, non-'#'-prefixed line: "<name> <words> <width> <op>
// [<op> ...]". It returns the requests in file order.
func LoadRequests(path string) ([]*Request, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer fp.Close()

	var requests []*Request
	var scanner = bufio.NewScanner(fp)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 4 {
			return nil, &FormatError{Token: text, Problem: "expected <name> <words> <width> <op> [<op> ...]"}
		}

		name := fields[0]
		words, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &FormatError{Context: name, Token: fields[1], Problem: "word count is not an integer"}
		}
		width, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, &FormatError{Context: name, Token: fields[2], Problem: "bit-width is not an integer"}
		}

		ops := make([]Operation, 0, len(fields)-3)
		for _, tok := range fields[3:] {
			op, err := ParseOperation(tok, words)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}

		req, err := NewRequest(name, words, width, ops)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return requests, nil
}
