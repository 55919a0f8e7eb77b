package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tgrit/formatter"
	"github.com/gnolang/tgrit/rewrite"
)

func newApplyCmd(root *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply [paths...]",
		Short: "Rewrite files with the rules' replacements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, root, args, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes as a diff without writing them")
	return cmd
}

func runApply(cmd *cobra.Command, root *rootOptions, paths []string, dryRun bool) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()

	e, reg, err := root.newEngine()
	if err != nil {
		return err
	}
	defer root.writeMetrics(reg)

	reports, err := rewrite.ProcessFiles(ctx, root.logger, e, paths, rewrite.ProcessApply)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range reports {
		if !r.Changed() {
			continue
		}
		if dryRun {
			d, err := formatter.ColorDiff(r.Path, r.Source, r.Rewritten)
			if err != nil {
				root.logger.Error("Error building diff", zap.String("file", r.Path), zap.Error(err))
				continue
			}
			fmt.Fprint(out, d)
			continue
		}
		if err := rewrite.WriteReport(r); err != nil {
			root.logger.Error("Error writing file", zap.String("file", r.Path), zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "rewrote %s\n", r.Path)
	}
	fmt.Fprint(out, formatter.Summary(reports))
	return nil
}
