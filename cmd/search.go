package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnolang/tgrit/engine"
	"github.com/gnolang/tgrit/formatter"
	"github.com/gnolang/tgrit/rewrite"
)

type searchOptions struct {
	jsonOutput  bool
	outPath     string
	failOnMatch bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [paths...]",
		Short: "Report every match of the rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output matches in JSON format")
	cmd.Flags().StringVarP(&opts.outPath, "output", "o", "", "Output path (when using JSON)")
	cmd.Flags().BoolVar(&opts.failOnMatch, "fail", false, "Exit with an error when any rule matches")
	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions, paths []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()

	e, reg, err := root.newEngine()
	if err != nil {
		return err
	}
	defer root.writeMetrics(reg)

	reports, err := rewrite.ProcessFiles(ctx, root.logger, e, paths, rewrite.ProcessSearch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		if err := printJSON(out, reports, opts.outPath); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			fmt.Fprint(out, formatter.FormatReport(r))
		}
		fmt.Fprint(out, formatter.Summary(reports))
	}

	if opts.failOnMatch && hasMatches(reports) {
		return ErrMatchesFound
	}
	return nil
}

type jsonReport struct {
	Path    string          `json:"path"`
	Results []engine.Result `json:"results"`
}

func printJSON(out io.Writer, reports []*rewrite.FileReport, outPath string) error {
	entries := make([]jsonReport, 0, len(reports))
	for _, r := range reports {
		if r.MatchCount() == 0 {
			continue
		}
		entries = append(entries, jsonReport{Path: r.Path, Results: r.Results})
	}
	d, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling matches to JSON: %w", err)
	}
	if outPath == "" {
		_, err = fmt.Fprintln(out, string(d))
		return err
	}
	return os.WriteFile(outPath, d, 0o644)
}

func hasMatches(reports []*rewrite.FileReport) bool {
	for _, r := range reports {
		if r.MatchCount() > 0 {
			return true
		}
	}
	return false
}
