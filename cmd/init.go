package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/tgrit/engine"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initRulesFile(root.rulesFile, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule file created: %s\n", root.rulesFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing rule file")
	return cmd
}

func sampleRules() []engine.Rule {
	repl := "println(:[args])"
	return []engine.Rule{
		{
			Name:        "fmt-println",
			Pattern:     "fmt.Println(:[args...])",
			Replacement: &repl,
		},
		{
			Name:    "find-todo",
			Pattern: "TODO(:[what])",
		},
	}
}

func initRulesFile(path string, force bool) error {
	if path == "" {
		path = defaultRulesFile
	}

	d, err := yaml.Marshal(engine.RulesConfig{Rules: sampleRules()})
	if err != nil {
		return err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}
