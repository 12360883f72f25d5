package lambdakit

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lambdakit/packages/bytecode"
	"github.com/user/lambdakit/packages/source"
)

const factSource = "(let (<fact (fun (n) (if (lt n 1) 1 (* n (fact (- n 1)))))>) (fact 5))"

func build(t testing.TB, src string) *Program {
	t.Helper()
	prog, err := Build(context.Background(), src, DefaultOptions())
	require.NoError(t, err)
	return prog
}

func TestBuildRunsEveryStage(t *testing.T) {
	prog := build(t, factSource)
	assert.Equal(t, factSource, prog.Source)
	assert.NotEmpty(t, prog.Tokens)
	assert.Len(t, prog.Raw, 1)
	assert.Len(t, prog.Refined, 1)
	assert.Equal(t, 4, prog.Labels, "one function and one if")
	assert.NoError(t, bytecode.Validate(context.Background(), prog.Code).Err())
	assert.Contains(t, prog.Listing(), "ARGCHECK 1")
}

func TestBuildErrorsNameTheStage(t *testing.T) {
	cases := []struct {
		src    string
		strict bool
		stage  string
		code   string
	}{
		{"\x01", false, "lex", "LEX_ERROR"},
		{"(+ 1", false, "parse", "PARSE_ERROR"},
		{"(fun x x)", false, "refine", "REFINE_ERROR"},
		{"(+ y 1)", true, "annotate", "SCOPE_ERROR"},
		{"(match 1 (x x))", false, "compile", "UNSUPPORTED"},
	}
	for _, c := range cases {
		opts := DefaultOptions()
		opts.Strict = c.strict
		_, err := Build(context.Background(), c.src, opts)
		require.Error(t, err, c.src)
		assert.Contains(t, err.Error(), c.stage+": ", c.src)
		d, ok := errors.Cause(err).(*source.Diagnostic)
		require.True(t, ok, "%s: %v", c.src, err)
		assert.Equal(t, c.code, d.Code, c.src)
	}
}

func TestBuildWithoutStrictAcceptsUnboundNames(t *testing.T) {
	_, err := Build(context.Background(), "(+ y 1)", DefaultOptions())
	assert.NoError(t, err)
}

func TestImageRoundTrip(t *testing.T) {
	prog := build(t, factSource)
	data, err := prog.Image()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, prog.Source, loaded.Source)
	assert.Equal(t, prog.Code, loaded.Code)

	s, err := NewSession(loaded, DefaultOptions())
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "120", res.Text)

	_, err = Load([]byte("format: 2.0.0\ncode: []\n"))
	assert.Error(t, err)
}
