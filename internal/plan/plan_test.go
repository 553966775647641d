package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/esp-tools/memgen/internal/memdesc"
	"github.com/esp-tools/memgen/internal/techlib"
)

func mustOp(t *testing.T, token string, words int) memdesc.Operation {
	t.Helper()
	op, err := memdesc.ParseOperation(token, words)
	require.NoError(t, err)
	return op
}

func mustRequest(t *testing.T, name string, words, width int, tokens ...string) *memdesc.Request {
	t.Helper()
	ops := make([]memdesc.Operation, len(tokens))
	for i, tok := range tokens {
		ops[i] = mustOp(t, tok, words)
	}
	req, err := memdesc.NewRequest(name, words, width, ops)
	require.NoError(t, err)
	return req
}

// dualLib pairs a single-port and a dual-port macro of the same
// geometry, so the planner's choice between them is driven purely by
// NeedDualPort rather than by capacity.
var dualLib = techlib.Library{
	{Name: "sram_1p", Words: 1024, Width: 32, Ports: 1, Area: 1.0},
	{Name: "sram_2p", Words: 1024, Width: 32, Ports: 2, Area: 1.8},
}

func TestCompute_Scenario1_ParallelReadWrite(t *testing.T) {
	req := mustRequest(t, "M", 1024, 32, "1w:1r")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)

	assert.True(t, p.NeedParallelRW)
	assert.Equal(t, "sram_2p", p.Bank.Name)
	assert.Equal(t, 1, p.Duplication)
	assert.Equal(t, 1, p.Distribution)
	assert.Equal(t, 1, p.VBanks)
	assert.Equal(t, 1, p.HHBanks)
	assert.Equal(t, 1.8, p.Area)
}

func TestCompute_Scenario2_ModuloReadDistribution(t *testing.T) {
	req := mustRequest(t, "M", 2048, 32, "0w:4r")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)

	assert.True(t, p.NeedDualPort)
	assert.Equal(t, 2, p.Distribution)
	assert.Equal(t, 1, p.Duplication)
	assert.Equal(t, "sram_2p", p.Bank.Name)
	// words_per_hbank = ceil(2048/2) = 1024, V = ceil(1024/1024) = 1.
	assert.Equal(t, 1, p.VBanks)
	assert.InDelta(t, 3.6, p.Area, 1e-9)
}

func TestCompute_Scenario3_UnknownReadDuplication(t *testing.T) {
	req := mustRequest(t, "M", 1024, 32, "0w:4ru")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)

	assert.Equal(t, 2, p.Duplication)
	assert.Equal(t, 1, p.Distribution)
	assert.Equal(t, "sram_2p", p.Bank.Name)
	assert.InDelta(t, 3.6, p.Area, 1e-9)
}

func TestCompute_Scenario4_TwoUnknownWrites(t *testing.T) {
	req := mustRequest(t, "M", 1024, 32, "2wu:0r")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)

	assert.True(t, p.NeedDualPort)
	assert.Equal(t, 1, p.Duplication)
	assert.Equal(t, 1, p.Distribution)
	assert.InDelta(t, 1.8, p.Area, 1e-9)
}

func TestCompute_Scenario5_NoSuitableMacro(t *testing.T) {
	req := mustRequest(t, "M", 4096, 64, "1w:1r")
	singlePortOnly := techlib.Library{{Name: "sram_1p", Words: 1024, Width: 32, Ports: 1, Area: 1.0}}

	_, err := Compute(req, singlePortOnly)
	require.Error(t, err)
	var nsm *NoSuitableMacroError
	assert.ErrorAs(t, err, &nsm)
}

func TestCompute_Scenario6_MixedModuloParallelism(t *testing.T) {
	req := mustRequest(t, "M", 1024, 32, "4w:4r")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Distribution)
	assert.Equal(t, 1, p.Duplication)
	assert.True(t, p.NeedDualPort)
}

func TestCompute_BoundaryOperations(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
	}{
		{"no-write", []string{"0w:1r"}},
		{"no-read", []string{"1w:0r"}},
		{"max-unknown-read", []string{"0w:16ru"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := mustRequest(t, "M", 16, 8, tc.tokens...)
			_, err := Compute(req, dualLib)
			require.NoError(t, err)
		})
	}
}

func TestCompute_SingleWordSingleBitMemory(t *testing.T) {
	req := mustRequest(t, "M", 1, 1, "1w:1r")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)
	assert.Equal(t, 1, p.VBanks)
	assert.Equal(t, 1, p.HHBanks)
}

func TestCompute_MixedParallelismDistribution(t *testing.T) {
	// Mixed parallelism within one request: 4w:0r and 0w:2r together.
	// Neither op mixes reads and writes, so both contributions are
	// halved: 4w:0r pulls H to 4/2 = 2 and 0w:2r to 2/2 = 1. Both ops
	// must still plan without error, and the resulting Distribution is
	// the larger of the two, H = max(2, 1) = 2.
	req := mustRequest(t, "M", 1024, 32, "4w:0r", "0w:2r")
	p, err := Compute(req, dualLib)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Distribution)
}

// TestCompute_Invariants is a rapid property test checking that
// Duplication, Distribution, VBanks and HHBanks always come out
// positive, that a dual-port macro is chosen whenever NeedDualPort is
// set, that the chosen banks cover the requested words and width, and
// that the interface counts cover every op, for randomly generated,
// constraint-valid operation sets.
func TestCompute_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SampledFrom([]int{16, 256, 1024, 4096}).Draw(t, "words")
		width := rapid.SampledFrom([]int{8, 16, 32, 64}).Draw(t, "width")

		tokenGen := rapid.SampledFrom([]string{
			"1w:1r", "2w:0r", "0w:2r", "4w:0r", "0w:4r",
			"1wu:0r", "2wu:0r", "0w:2ru", "0w:4ru",
		})
		n := rapid.IntRange(1, 3).Draw(t, "numOps")

		var ops []memdesc.Operation
		for i := 0; i < n; i++ {
			tok := tokenGen.Draw(t, "op")
			op, err := memdesc.ParseOperation(tok, words)
			if err != nil {
				continue
			}
			ops = append(ops, op)
		}
		if len(ops) == 0 {
			return
		}
		req, err := memdesc.NewRequest("M", words, width, ops)
		require.NoError(t, err)

		lib := techlib.Library{
			{Name: "sram_1p", Words: 64, Width: 16, Ports: 1, Area: 1.0},
			{Name: "sram_2p", Words: 64, Width: 16, Ports: 2, Area: 1.6},
		}

		p, err := Compute(req, lib)
		if err != nil {
			var nsm *NoSuitableMacroError
			require.ErrorAs(t, err, &nsm)
			return
		}

		assert.GreaterOrEqual(t, p.Duplication, 1)
		assert.GreaterOrEqual(t, p.Distribution, 1)
		assert.GreaterOrEqual(t, p.VBanks, 1)
		assert.GreaterOrEqual(t, p.HHBanks, 1)

		if p.NeedDualPort {
			assert.GreaterOrEqual(t, p.Bank.Ports, 2)
		}

		assert.GreaterOrEqual(t, p.Distribution*p.Bank.Words*p.VBanks, words)
		assert.GreaterOrEqual(t, p.HHBanks*p.Bank.Width, width)

		for _, op := range req.Ops {
			assert.GreaterOrEqual(t, p.ReadInterfaces, op.ReadCount)
			assert.GreaterOrEqual(t, p.WriteInterfaces, op.WriteCount)
		}
	})
}
