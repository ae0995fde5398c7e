package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"promptpack/pkg/combine"
	"promptpack/pkg/config"
)

func newCombineCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "combine [paths...]",
		Short: "Combine files into a single output",
		Long: `Combine walks the given paths (the current directory by default), skips ignored
and binary files, processes the rest concurrently and writes a directory tree
followed by every file's content.`,
		RunE: func(cmd *cobra.Command, paths []string) error {
			logger := a.logger
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("error reading flags: %w", err)
			}

			args := combine.DefaultArguments()
			file, used, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if used != "" {
				logger.Debug("Loaded configuration", zap.String("file", used))
			}
			file.Apply(&args)
			if err := config.ApplyFlags(cmd.Flags(), &args); err != nil {
				return err
			}
			if len(paths) > 0 {
				args.Paths = paths
			}

			streams := combine.Streams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
			report, err := combine.Run(cmd.Context(), args, streams, logger)
			if err != nil {
				return err
			}
			if report.Aborted {
				return nil
			}
			return report.Render(streams.Out)
		},
	}
	config.RegisterFlags(c.Flags(), combine.DefaultArguments())
	return c
}
