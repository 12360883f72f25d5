package main

import (
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/user/lambdakit"
)

// state is shared by every subcommand of one invocation.
type state struct {
	configPath string
	strict     bool
	maxSteps   int
	opts       lambdakit.Options
	cache      *lambdakit.ProgramCache
}

// newLambdakitCmd creates the root command.
func newLambdakitCmd() *cobra.Command {
	st := &state{}
	var logToStderr bool
	var verbose int
	cmd := &cobra.Command{
		Use:           "lambdakit",
		Short:         "Compile and run programs for a small curried functional language",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging(logToStderr, verbose)
			return st.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			glog.Flush()
		},
	}

	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr instead of to files")
	cmd.PersistentFlags().IntVarP(
		&verbose, "verbose", "v", 0, "Enable verbose logging (e.g., v=3); anything >3 is very verbose")
	cmd.PersistentFlags().StringVar(&st.configPath, "config", "", "Read options from this YAML file")
	cmd.PersistentFlags().BoolVar(&st.strict, "strict", false, "Reject references to unbound names")
	cmd.PersistentFlags().IntVar(&st.maxSteps, "max-steps", 0, "Stop a run after this many steps (0 keeps the configured limit)")

	cmd.AddCommand(newLexCmd(st))
	cmd.AddCommand(newParseCmd(st))
	cmd.AddCommand(newCompileCmd(st))
	cmd.AddCommand(newRunCmd(st))
	cmd.AddCommand(newDebugCmd(st))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load reads the options file, if any, and applies flag overrides.
func (st *state) load(cmd *cobra.Command) error {
	st.opts = lambdakit.DefaultOptions()
	if st.configPath != "" {
		opts, err := lambdakit.LoadOptions(st.configPath)
		if err != nil {
			return err
		}
		st.opts = opts
	}
	if cmd.Flags().Changed("strict") {
		st.opts.Strict = st.strict
	}
	if st.maxSteps > 0 {
		st.opts.MaxSteps = st.maxSteps
	}
	st.cache = lambdakit.NewProgramCache(st.opts.CacheSize)
	glog.V(3).Infof("lambdakit: options %+v", st.opts)
	return nil
}
