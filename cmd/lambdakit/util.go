package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/user/lambdakit"
)

var detailedErrors bool

// initLogging ensures glog has been initialized with the given settings.
func initLogging(toStderr bool, verbose int) {
	flag.CommandLine.Parse([]string{})
	detailedErrors = toStderr
	if toStderr {
		_ = flag.Lookup("logtostderr").Value.Set("true")
	}
	if verbose > 0 {
		_ = flag.Lookup("v").Value.Set(strconv.Itoa(verbose))
	}
}

// runFunc wraps an error-returning run func so that every command reports
// errors the same way.
func runFunc(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err == nil {
			return nil
		}
		if detailedErrors {
			glog.Errorf("%+v", err)
		} else {
			glog.V(3).Infof("%+v", err)
		}
		return errors.New(errorMessage(err))
	}
}

// errorMessage flattens aggregated errors into a numbered list.
func errorMessage(err error) string {
	if multi, ok := errors.Cause(err).(*multierror.Error); ok {
		wr := multi.WrappedErrors()
		if len(wr) == 1 {
			return errorMessage(wr[0])
		}
		msg := fmt.Sprintf("%d errors occurred:", len(wr))
		for i, werr := range wr {
			msg += fmt.Sprintf("\n    %d) %s", i, errorMessage(werr))
		}
		return msg
	}
	return err.Error()
}

// readSource reads a file, or stdin for "-".
func readSource(path string) ([]byte, error) {
	if path == "-" {
		b, err := ioutil.ReadAll(os.Stdin)
		return b, errors.Wrap(err, "reading stdin")
	}
	b, err := ioutil.ReadFile(path)
	return b, errors.Wrapf(err, "reading %s", path)
}

// isImage reports whether path names a compiled image rather than source.
func isImage(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".lkb":
		return true
	}
	return false
}

// loadProgram builds source files through the cache and decodes images.
func (st *state) loadProgram(ctx context.Context, path string) (*lambdakit.Program, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	if isImage(path) {
		prog, err := lambdakit.Load(data)
		return prog, errors.Wrap(err, path)
	}
	prog, err := st.cache.Build(ctx, string(data), st.opts)
	return prog, errors.Wrap(err, path)
}
