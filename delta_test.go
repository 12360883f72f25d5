package lambdakit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lambdakit/packages/bytecode"
	"github.com/user/lambdakit/packages/vm"
)

func TestStepDeltas(t *testing.T) {
	s := session(t, "(+ 1 2)", DefaultOptions())
	var deltas []StepDelta
	for !s.Done() {
		d, err := s.Step()
		require.NoError(t, err)
		deltas = append(deltas, d)
	}
	require.Len(t, deltas, 7)

	assert.Empty(t, deltas[0].Allocated, "LOAD only touches the literal stack")
	assert.Equal(t, []vm.Ref{{Kind: vm.BASIC, Addr: 0}}, deltas[1].Allocated)
	assert.Equal(t, []vm.Ref{{Kind: vm.BUILTIN, Addr: 2}}, deltas[4].Allocated)

	push := deltas[5]
	assert.Equal(t, bytecode.PUSHSTACK, push.Instr.Op)
	assert.Equal(t, 0, push.BeforeDepth)
	assert.Equal(t, 1, push.AfterDepth)
	assert.False(t, push.Jumped())

	apply := deltas[6]
	assert.Equal(t, 1, apply.BeforeDepth)
	assert.Equal(t, 0, apply.AfterDepth)
	assert.Equal(t, []vm.Ref{{Kind: vm.BASIC, Addr: 3}}, apply.Allocated)
	assert.True(t, apply.Halted)
	assert.Equal(t, "#7    6 APPLY                    depth 1 -> 0 +1 heap (halted)", apply.String())
}

func TestStepDeltaJumps(t *testing.T) {
	s := session(t, "(if 0 1 2)", DefaultOptions())
	var jumps []StepDelta
	for !s.Done() {
		d, err := s.Step()
		require.NoError(t, err)
		if d.Jumped() {
			jumps = append(jumps, d)
		}
	}
	require.Len(t, jumps, 1)
	assert.Equal(t, bytecode.JUMPZ, jumps[0].Instr.Op)
	assert.Contains(t, jumps[0].String(), "-> ")
}
