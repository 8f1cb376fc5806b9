package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/differ"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
		unified      bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> <template2>",
		Short: "Compare two synthesized templates",
		Long: `Diff compares two CloudFormation templates resource by resource.

Kubernetes manifest resources are compared object by object, so a change
to one Deployment is reported as that Deployment.

Examples:
    wetwire-eks diff old.json new.json
    wetwire-eks diff old.json new.yaml --ignore-order
    wetwire-eks diff old.json new.json --unified
    wetwire-eks diff old.json new.json --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1], outputFormat, ignoreOrder, unified)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")
	cmd.Flags().BoolVarP(&unified, "unified", "u", false, "Print a unified diff for each modified resource")

	return cmd
}

func runDiff(w io.Writer, file1, file2, format string, ignoreOrder, unified bool) error {
	t1, err := differ.LoadTemplate(file1)
	if err != nil {
		return err
	}
	t2, err := differ.LoadTemplate(file2)
	if err != nil {
		return err
	}

	result, err := differ.Compare(t1, t2, differ.Options{IgnoreOrder: ignoreOrder})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    wetwire.TemplateDiff `json:"diff"`
			Summary wetwire.DiffSummary  `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil

	case "text":
		return writeDiffText(w, result, t1, t2, unified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeDiffText(w io.Writer, result *differ.Result, t1, t2 *wetwire.Template, unified bool) error {
	if result.Summary.Total == 0 {
		fmt.Fprintln(w, "No differences.")
		return nil
	}

	for _, e := range result.Diff.Added {
		fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Removed {
		fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Modified {
		fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
		for _, change := range e.Changes {
			fmt.Fprintf(w, "    %s\n", change)
		}
		if unified {
			text, err := differ.Unified(t1, t2, e.Resource)
			if err != nil {
				return err
			}
			fmt.Fprint(w, text)
		}
	}

	fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
		result.Summary.Added, result.Summary.Removed, result.Summary.Modified)
	return nil
}
