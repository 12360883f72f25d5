// Package lambdakit drives the toolchain from source text to a running
// machine: build, cache, step, trace and replay.
package lambdakit

import (
	"context"

	"github.com/golang/glog"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/user/lambdakit/packages/bytecode"
	"github.com/user/lambdakit/packages/lexer"
	"github.com/user/lambdakit/packages/scope"
	"github.com/user/lambdakit/packages/syntax"
)

// Program is the output of every stage for one source text. It is
// immutable once built and may be shared between sessions.
type Program struct {
	Source  string
	Tokens  []lexer.Token
	Raw     []syntax.Node
	Refined []syntax.Refined
	Code    []bytecode.Instruction
	Labels  int
}

// stage runs fn inside a child span of ctx.
func stage(ctx context.Context, name string, fn func() error) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "lambdakit-"+name)
	defer span.Finish()
	if err := fn(); err != nil {
		span.SetTag("error", true)
		return errors.Wrap(err, name)
	}
	if glog.V(3) {
		glog.Infof("lambdakit: %s done", name)
	}
	return nil
}

// Build lexes, parses, refines, annotates and compiles src. Errors are
// wrapped with the failing stage; errors.Cause yields the
// *source.Diagnostic.
func Build(ctx context.Context, src string, opts Options) (*Program, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "lambdakit-build")
	defer span.Finish()

	p := &Program{Source: src}
	err := stage(ctx, "lex", func() (err error) {
		p.Tokens, err = lexer.Lex(src)
		return err
	})
	if err == nil {
		err = stage(ctx, "parse", func() (err error) {
			p.Raw, err = syntax.Parse(p.Tokens)
			return err
		})
	}
	if err == nil {
		err = stage(ctx, "refine", func() (err error) {
			p.Refined, err = syntax.Refine(p.Raw)
			return err
		})
	}
	if err == nil {
		err = stage(ctx, "annotate", func() error {
			var sopts []scope.Option
			if opts.Strict {
				sopts = append(sopts, scope.WithStrict())
			}
			sc := scope.NewContext(bytecode.BuiltinTable{}, sopts...)
			if err := scope.Annotate(p.Refined, sc); err != nil {
				return err
			}
			p.Labels = sc.Labels()
			return nil
		})
	}
	if err == nil {
		err = stage(ctx, "compile", func() (err error) {
			p.Code, err = bytecode.Compile(p.Refined)
			return err
		})
	}
	if err != nil {
		span.SetTag("error", true)
		return nil, err
	}
	glog.V(3).Infof("lambdakit: built %d instructions from %d tokens", len(p.Code), len(p.Tokens))
	return p, nil
}

// Load builds a program from a bytecode image. Only Source and Code are
// set.
func Load(data []byte) (*Program, error) {
	img, err := bytecode.UnmarshalImage(data)
	if err != nil {
		return nil, err
	}
	return &Program{Source: img.Source, Code: img.Code}, nil
}

// Image encodes p as a bytecode image.
func (p *Program) Image() ([]byte, error) {
	return bytecode.MarshalImage(p.Code, p.Source)
}

// Listing is the numbered disassembly of p.
func (p *Program) Listing() string {
	return bytecode.Listing(p.Code)
}
