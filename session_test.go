package lambdakit

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/user/lambdakit/packages/vm"
)

func session(t *testing.T, src string, opts Options) *Session {
	t.Helper()
	prog, err := Build(context.Background(), src, opts)
	require.NoError(t, err)
	s, err := NewSession(prog, opts)
	require.NoError(t, err)
	return s
}

func TestSessionRun(t *testing.T) {
	s := session(t, "(+ 1 2)", DefaultOptions())
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", res.Text)
	assert.Equal(t, 7, res.Steps)
	assert.Equal(t, 4, res.HeapLen)
	assert.Equal(t, vm.BASIC, res.Value.Kind)
	assert.True(t, s.Done())
	assert.Equal(t, 0, s.Trace().Len(), "tracing is off by default")

	_, err = s.Step()
	assert.Equal(t, vm.ErrHalted, err)
}

func TestSessionNeedsAProgram(t *testing.T) {
	_, err := NewSession(nil, DefaultOptions())
	assert.Equal(t, ErrNoProgram, err)
}

func TestSessionFault(t *testing.T) {
	s := session(t, "(/ 1 0)", DefaultOptions())
	_, err := s.Run(context.Background())
	require.Error(t, err)
	f, ok := errors.Cause(err).(*vm.Fault)
	require.True(t, ok, "%v", err)
	assert.Equal(t, vm.DivideByZero, f.Code)
	assert.True(t, s.Done())
	_, ok = s.Result()
	assert.False(t, ok)
}

func TestSessionStepBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSteps = 1000
	s := session(t, "(let (<loop (fun (n) (loop n))>) (loop 1))", opts)
	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrStepBudget, errors.Cause(err))
	assert.Equal(t, 1000, s.Steps())
}

func TestSessionHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := session(t, factSource, DefaultOptions())
	_, err := s.Run(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 0, s.Steps())
}

func TestSessionTrace(t *testing.T) {
	opts := DefaultOptions()
	opts.Trace = true
	s := session(t, "(+ 1 2)", opts)
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	trace := s.Trace()
	require.Equal(t, 7, trace.Len())
	assert.Equal(t, 1, trace.MaxDepth())
	e, ok := trace.Get(5)
	require.True(t, ok)
	assert.Equal(t, 6, e.Step)
	assert.Equal(t, 5, e.PC)
	assert.Equal(t, "PUSHSTACK 3", e.Instr.String())
	assert.Equal(t, 1, e.Depth)

	_, ok = trace.Get(7)
	assert.False(t, ok)
	assert.Len(t, trace.Range(-3, 2), 2)
	assert.Len(t, trace.Range(5, 99), 2)
	assert.Nil(t, trace.Range(4, 4))
}

func TestConcurrentSessionsDoNotInteract(t *testing.T) {
	var g errgroup.Group
	results := make([]string, 8)
	for i := range results {
		i := i
		g.Go(func() error {
			src := fmt.Sprintf("(let (<fact (fun (n) (if (lt n 1) 1 (* n (fact (- n 1)))))>) (fact %d))", i)
			p, err := Build(context.Background(), src, DefaultOptions())
			if err != nil {
				return err
			}
			s, err := NewSession(p, DefaultOptions())
			if err != nil {
				return err
			}
			res, err := s.Run(context.Background())
			if err != nil {
				return err
			}
			results[i] = res.Text
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, []string{"1", "1", "2", "6", "24", "120", "720", "5040"}, results)
}

func TestSessionsShareOneProgram(t *testing.T) {
	prog := build(t, factSource)
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			s, err := NewSession(prog, DefaultOptions())
			if err != nil {
				return err
			}
			res, err := s.Run(context.Background())
			if err != nil {
				return err
			}
			if res.Text != "120" {
				return errors.Errorf("got %s", res.Text)
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())
}
