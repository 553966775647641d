package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esp-tools/memgen/internal/cli"
	"github.com/esp-tools/memgen/internal/memdesc"
	"github.com/esp-tools/memgen/internal/plan"
)

func TestRun_UsageError(t *testing.T) {
	err := run([]string{"onlyone"})
	require.Error(t, err)
	var ue *cli.UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestRun_EndToEnd(t *testing.T) {
	techDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(techDir, "lib.txt"),
		[]byte("1024 32 sram_1p 1.0 1\n1024 32 sram_2p 1.8 2\n"), 0o644))

	workDir := t.TempDir()
	infile := filepath.Join(workDir, "memories.txt")
	require.NoError(t, os.WriteFile(infile, []byte("fifo 1024 32 1w:1r\n"), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	defer func() { _ = os.Chdir(cwd) }()

	require.NoError(t, run([]string{techDir, infile}))

	out, err := os.ReadFile(filepath.Join(workDir, "fifo.v"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "module fifo(")
	assert.Contains(t, string(out), "endmodule")
}

func TestRun_NoSuitableMacroPropagates(t *testing.T) {
	techDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(techDir, "lib.txt"),
		[]byte("1024 32 sram_1p 1.0 1\n"), 0o644))

	workDir := t.TempDir()
	infile := filepath.Join(workDir, "memories.txt")
	require.NoError(t, os.WriteFile(infile, []byte("fifo 4096 64 1w:1r\n"), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	defer func() { _ = os.Chdir(cwd) }()

	err = run([]string{techDir, infile})
	require.Error(t, err)
	var nsm *plan.NoSuitableMacroError
	assert.ErrorAs(t, err, &nsm)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(&cli.UsageError{Problem: "x"}))
	assert.Equal(t, 2, exitCode(&memdesc.IOError{Path: "x", Err: os.ErrNotExist}))
}
