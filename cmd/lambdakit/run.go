package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/lambdakit"
)

type runOutcome struct {
	path    string
	result  *lambdakit.Result
	elapsed time.Duration
}

func newRunCmd(st *state) *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "run <file|image>...",
		Short: "Run one or more programs concurrently and print their results",
		Args:  cobra.MinimumNArgs(1),
		RunE: runFunc(func(cmd *cobra.Command, args []string) error {
			outcomes := make([]runOutcome, len(args))
			g, ctx := errgroup.WithContext(context.Background())
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					start := time.Now()
					prog, err := st.loadProgram(ctx, path)
					if err != nil {
						return err
					}
					s, err := lambdakit.NewSession(prog, st.opts)
					if err != nil {
						return err
					}
					res, err := s.Run(ctx)
					if err != nil {
						return errors.Wrap(err, path)
					}
					outcomes[i] = runOutcome{path: path, result: res, elapsed: time.Since(start)}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, o := range outcomes {
				if len(args) > 1 {
					fmt.Printf("%s: ", o.path)
				}
				fmt.Println(o.result.Text)
				if stats {
					fmt.Printf("  %s steps, %s heap values, %v\n",
						humanize.Comma(int64(o.result.Steps)), humanize.Comma(int64(o.result.HeapLen)), o.elapsed)
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&stats, "stats", "s", false, "Print step and heap statistics")
	return cmd
}
