package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/lambdakit/packages/bytecode"
)

const version = "0.3.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lambdakit version and image format",
		Args:  cobra.NoArgs,
		RunE: runFunc(func(cmd *cobra.Command, args []string) error {
			fmt.Printf("lambdakit version %v (image format %v)\n", version, bytecode.ImageFormat)
			return nil
		}),
	}
}
