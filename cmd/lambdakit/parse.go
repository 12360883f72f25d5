package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/lambdakit/packages/lexer"
	"github.com/user/lambdakit/packages/syntax"
)

func newParseCmd(st *state) *cobra.Command {
	var refined bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the syntax tree of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: runFunc(func(cmd *cobra.Command, args []string) error {
			if refined {
				prog, err := st.loadProgram(context.Background(), args[0])
				if err != nil {
					return err
				}
				for _, n := range prog.Refined {
					fmt.Printf("%s %T\n", n, n)
				}
				return nil
			}

			// 生の木は refine 前に止めて表示する。
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens, err := lexer.Lex(string(src))
			if err != nil {
				return err
			}
			raw, err := syntax.Parse(tokens)
			if err != nil {
				return err
			}
			for _, n := range raw {
				fmt.Printf("%s %T\n", n, n)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&refined, "refined", false, "Refine and annotate before printing")
	return cmd
}
