package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"promptpack/pkg/logging"
	"promptpack/pkg/version"
)

const appName = "promptpack"

// app carries state shared by the commands of one invocation.
type app struct {
	logger *zap.Logger
}

// NewRootCmd builds the command tree. logger is used unless --debug asks
// for a development logger.
func NewRootCmd(logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:   appName,
		Short: "promptpack combines project files into a single document",
		Long: `promptpack combines the files of a project into a single output, designed for
preparing LLM input. Large files are streamed and truncated, source files can be
compacted, and processing pauses under memory pressure.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("error reading flags: %w", err)
			}
			if !debug {
				return nil
			}
			logger, err := logging.Setup(true, appName, version.Version)
			if err != nil {
				return fmt.Errorf("failed to initialize debug logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "Configuration file (default .promptpack.yaml)")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(newCombineCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, logger *zap.Logger) error {
	return NewRootCmd(logger).ExecuteContext(ctx)
}
