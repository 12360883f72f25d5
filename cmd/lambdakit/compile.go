package main

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCompileCmd(st *state) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file and print its listing or write an image",
		Args:  cobra.ExactArgs(1),
		RunE: runFunc(func(cmd *cobra.Command, args []string) error {
			prog, err := st.loadProgram(context.Background(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Print(prog.Listing())
				return nil
			}
			data, err := prog.Image()
			if err != nil {
				return err
			}
			if err := ioutil.WriteFile(output, data, 0644); err != nil {
				return errors.Wrapf(err, "writing %s", output)
			}
			glog.V(3).Infof("lambdakit: wrote %s", output)
			fmt.Printf("wrote %s (%d instructions, %s)\n",
				output, len(prog.Code), humanize.Bytes(uint64(len(data))))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write a bytecode image to this path")
	return cmd
}
