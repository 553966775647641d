package memdesc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequests(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memories.txt")
	contents := "" +
		"# a comment line, and a blank line follow\n" +
		"\n" +
		"fifo_in   1024 32 1w:1r\n" +
		"regfile   256  64 2wu:0r 0w:4r\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	requests, err := LoadRequests(path)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	assert.Equal(t, "fifo_in", requests[0].Name)
	assert.Equal(t, 1024, requests[0].Words)
	assert.Equal(t, 32, requests[0].Width)
	require.Len(t, requests[0].Ops, 1)

	assert.Equal(t, "regfile", requests[1].Name)
	require.Len(t, requests[1].Ops, 2)
}

func TestLoadRequests_MissingFile(t *testing.T) {
	_, err := LoadRequests(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	require.Error(t, err)
	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}
