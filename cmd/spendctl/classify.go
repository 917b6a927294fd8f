package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spendwise/internal/cli"
	"spendwise/internal/core"
)

func classifyCmd() *cobra.Command {
	var rulesFile string

	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Show which category a description would get",
		Long: `Run the keyword classifier on a description without storing anything.
Rules come from --rules, CLASSIFIER_RULES_FILE, or the built-in table.`,
		Example: `  spendctl classify "dinner with doctor"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesFile == "" {
				rulesFile = os.Getenv("CLASSIFIER_RULES_FILE")
			}
			cls, err := cli.NewClassifier(rulesFile)
			if err != nil {
				return err
			}

			description := strings.Join(args, " ")
			category := cls.Classify(description, core.Money{}, "")
			match := cls.Explain(description)

			out := cmd.OutOrStdout()
			if match.Matched {
				_, err = fmt.Fprintf(out, "%s (keyword %q)\n", category, match.Keyword)
			} else {
				_, err = fmt.Fprintf(out, "%s (no keyword matched)\n", category)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file")
	return cmd
}
