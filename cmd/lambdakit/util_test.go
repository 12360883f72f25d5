package main

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessageFlattensMultierrors(t *testing.T) {
	var multi *multierror.Error
	multi = multierror.Append(multi, errors.New("first"), errors.New("second"))
	msg := errorMessage(errors.Wrap(multi, "invalid image"))
	assert.Equal(t, "2 errors occurred:\n    0) first\n    1) second", msg)

	one := multierror.Append(nil, errors.New("only"))
	assert.Equal(t, "only", errorMessage(one))
	assert.Equal(t, "plain", errorMessage(errors.New("plain")))
}

func TestIsImage(t *testing.T) {
	assert.True(t, isImage("prog.yaml"))
	assert.True(t, isImage("out/prog.lkb"))
	assert.False(t, isImage("prog.lk"))
	assert.False(t, isImage("-"))
}

func TestCommandTree(t *testing.T) {
	cmd := newLambdakitCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"lex", "parse", "compile", "run", "debug", "version"}, names)
}
