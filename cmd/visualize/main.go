package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/user/lambdakit"
	"github.com/user/lambdakit/packages/bytecode"
)

func main() {
	if err := newVisualizeCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newVisualizeCmd() *cobra.Command {
	var mode string
	var width int
	var limit int
	cmd := &cobra.Command{
		Use:          "visualize <file>",
		Short:        "Render the frame depth of a run over time",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			glog.Flush()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := traceFile(args[0], limit)
			if err != nil {
				return err
			}
			switch mode {
			case "timeline":
				printTimeline(trace, width)
			case "calls":
				printCalls(trace)
			case "all":
				fmt.Println("=== Frame depth over time ===")
				printTimeline(trace, width)
				fmt.Println()
				fmt.Println("=== Calls and returns ===")
				printCalls(trace)
			default:
				return errors.Errorf("unknown mode: %s", mode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "all", "visualization: all|timeline|calls")
	cmd.Flags().IntVar(&width, "width", 72, "timeline width in columns")
	cmd.Flags().IntVar(&limit, "max-steps", 100000, "stop tracing after this many steps")
	return cmd
}

// traceFile builds and runs the program at path with tracing on. A fault
// still yields the trace up to the faulting step.
func traceFile(path string, limit int) (*lambdakit.TraceLog, error) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	opts := lambdakit.DefaultOptions()
	opts.Trace = true
	opts.MaxSteps = limit
	prog, err := lambdakit.Build(context.Background(), string(src), opts)
	if err != nil {
		return nil, err
	}
	s, err := lambdakit.NewSession(prog, opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "run stopped: %v\n", err)
	}
	return s.Trace(), nil
}

// printTimeline draws one column per bucket of steps; each column's height is
// the deepest frame reached in that bucket.
func printTimeline(trace *lambdakit.TraceLog, width int) {
	n := trace.Len()
	if n == 0 {
		fmt.Println("(no steps)")
		return
	}
	if width <= 0 || width > n {
		width = n
	}
	cols := make([]int, width)
	for i, e := range trace.Range(0, n) {
		c := i * width / n
		if e.Depth > cols[c] {
			cols[c] = e.Depth
		}
	}

	deepest := trace.MaxDepth()
	for level := deepest; level >= 1; level-- {
		var b strings.Builder
		for _, d := range cols {
			if d >= level {
				b.WriteByte('#')
			} else {
				b.WriteByte(' ')
			}
		}
		fmt.Printf("%3d |%s\n", level, strings.TrimRight(b.String(), " "))
	}
	fmt.Printf("    +%s\n", strings.Repeat("-", width))
	fmt.Printf("     steps 1..%d, %d per column, max depth %d\n", n, (n+width-1)/width, deepest)
}

// printCalls prints every APPLY and RETURN indented by the depth it lands
// in.
func printCalls(trace *lambdakit.TraceLog) {
	for _, e := range trace.Range(0, trace.Len()) {
		switch e.Instr.Op {
		case bytecode.APPLY, bytecode.RETURN:
		default:
			continue
		}
		fmt.Printf("%6d %s- %s (pc %d)\n", e.Step, strings.Repeat("  ", e.Depth), e.Instr.Op, e.PC)
	}
}
