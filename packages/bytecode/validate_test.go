package bytecode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCompiledProgram(t *testing.T) {
	code := compileSource(t, "(let (<f (fun (x y) (if (lt x y) x y))>) ((f 1) 2))")
	result := Validate(context.Background(), code)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	code := []Instruction{
		Label("a"),
		Label("a"),
		Jump("missing"),
		MkFunc("a", -1),
		PushStack(0),
		LoadVar(-1, BuiltinCount),
		LoadVar(-2, 0),
		StoreA(-1),
		{Op: Op(99)},
	}
	result := Validate(context.Background(), code)
	require.False(t, result.Valid)

	var types []string
	for _, e := range result.Errors {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		"duplicate_label",
		"unresolved_label",
		"bad_arity",
		"bad_count",
		"unknown_builtin",
		"bad_depth",
		"bad_slot",
		"bad_opcode",
	}, types)

	err := result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "8 errors occurred")
	assert.Contains(t, err.Error(), `no LABEL "missing" in program`)
}

func TestValidateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Validate(ctx, []Instruction{Apply()})
	assert.True(t, result.Cancelled)
	assert.Error(t, result.Err())
}

func TestBuiltinTable(t *testing.T) {
	idx, ok := LookupBuiltin("nth")
	require.True(t, ok)
	name, ok := BuiltinName(idx)
	require.True(t, ok)
	assert.Equal(t, "nth", name)

	_, ok = LookupBuiltin("print")
	assert.False(t, ok)
	_, ok = BuiltinName(-1)
	assert.False(t, ok)

	names := BuiltinTable{}.BuiltinNames()
	assert.Len(t, names, BuiltinCount)
	names[0] = "clobbered"
	assert.Equal(t, "+", BuiltinTable{}.BuiltinNames()[0])
}
