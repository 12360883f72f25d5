package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/lambdakit/packages/lexer"
)

func newLexCmd(st *state) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "lex <file>",
		Short: "Print the tokens of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: runFunc(func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens, err := lexer.Lex(string(src))
			if err != nil {
				return err
			}
			if !all {
				tokens = lexer.Significant(tokens)
			}
			for _, tok := range tokens {
				fmt.Printf("%-9s %-9s %q\n", tok.Span, tok.Kind, tok.Text)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include whitespace, comments and commas")
	return cmd
}
