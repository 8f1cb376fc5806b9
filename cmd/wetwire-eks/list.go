package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-eks-go"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var (
		flags        synthFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources in apply order",
		Long: `List declares the stack and prints every resource in the order
CloudFormation will apply it, with the resources it waits for.

Examples:
    wetwire-eks list
    wetwire-eks list --policy merged
    wetwire-eks list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.synthesize(cmd, g.log())
			if err != nil {
				return err
			}
			resolved, err := s.Resolve()
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResult(resolved), outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

// listResult keeps the apply order of resolved. DependsOn holds both explicit
// and reference edges.
func listResult(resolved []wetwire.ResolvedResource) wetwire.ListResult {
	result := wetwire.ListResult{
		Resources: make([]wetwire.ListResource, 0, len(resolved)),
	}
	for _, res := range resolved {
		result.Resources = append(result.Resources, wetwire.ListResource{
			Name:      res.Name,
			Type:      res.Type,
			DependsOn: mergeEdges(res.DependsOn, res.References),
		})
	}
	return result
}

func mergeEdges(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func outputListResult(w io.Writer, result wetwire.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources declared.")
			return nil
		}

		fmt.Fprintf(w, "Resources in apply order (%d):\n\n", len(result.Resources))
		for i, res := range result.Resources {
			fmt.Fprintf(w, "  %3d. %s: %s\n", i+1, res.Name, res.Type)
			if len(res.DependsOn) > 0 {
				fmt.Fprintf(w, "       after: %s\n", strings.Join(res.DependsOn, ", "))
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
