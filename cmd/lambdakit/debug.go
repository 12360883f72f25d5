package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/user/lambdakit"
	"github.com/user/lambdakit/packages/vm"
)

const debugHelp = `commands:
  s [n]     step n instructions (default 1)
  r         run to the end
  p         print the machine state
  l         print the listing
  b <step>  move to step, replaying from the start if needed
  t [n]     print the last n trace entries (default 10)
  q         quit`

func newDebugCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "debug <file|image>",
		Short: "Step through a program interactively",
		Args:  cobra.ExactArgs(1),
		RunE: runFunc(func(cmd *cobra.Command, args []string) error {
			prog, err := st.loadProgram(context.Background(), args[0])
			if err != nil {
				return err
			}
			opts := st.opts
			opts.Trace = true
			s, err := lambdakit.NewSession(prog, opts)
			if err != nil {
				return err
			}

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			fmt.Println(debugHelp)
			for {
				line, err := ln.Prompt(fmt.Sprintf("[%d] ", s.Steps()))
				if err == io.EOF || err == liner.ErrPromptAborted {
					fmt.Println()
					return nil
				}
				if err != nil {
					return err
				}
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				ln.AppendHistory(line)
				if fields[0] == "q" {
					return nil
				}
				debugCommand(s, fields)
			}
		}),
	}
}

// debugCommand runs one debugger command. Machine errors are printed, not
// returned, so the session stays open for inspection.
func debugCommand(s *lambdakit.Session, fields []string) {
	arg := func(def int) (int, bool) {
		if len(fields) < 2 {
			return def, true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			fmt.Printf("bad count %q\n", fields[1])
			return 0, false
		}
		return n, true
	}

	switch fields[0] {
	case "s":
		n, ok := arg(1)
		if !ok {
			return
		}
		for i := 0; i < n; i++ {
			d, err := s.Step()
			if err != nil {
				report(s, err)
				return
			}
			fmt.Println(d)
		}
		if s.Done() {
			report(s, nil)
		}
	case "r":
		_, err := s.Run(context.Background())
		report(s, err)
	case "p":
		fmt.Print(s.Machine().Repr())
	case "l":
		fmt.Print(s.Program().Listing())
	case "b":
		if len(fields) < 2 {
			fmt.Println("b needs a step number")
			return
		}
		n, ok := arg(0)
		if !ok {
			return
		}
		if err := s.Rewind(n); err != nil {
			report(s, err)
			return
		}
		fmt.Printf("at step %d, pc %d\n", s.Steps(), s.Machine().PC())
	case "t":
		n, ok := arg(10)
		if !ok {
			return
		}
		trace := s.Trace()
		for _, e := range trace.Range(trace.Len()-n, trace.Len()) {
			fmt.Printf("#%d %4d %-24s depth %d\n", e.Step, e.PC, e.Instr, e.Depth)
		}
	default:
		fmt.Println(debugHelp)
	}
}

func report(s *lambdakit.Session, err error) {
	switch {
	case err == vm.ErrHalted:
		fmt.Println("program already halted")
	case err != nil:
		fmt.Printf("error: %v\n", err)
	}
	if res, ok := s.Result(); ok {
		fmt.Printf("result: %s (%d steps)\n", res.Text, res.Steps)
	}
}
