package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-eks-go/internal/graph"
)

func newGraphCmd(g *globalOptions) *cobra.Command {
	var (
		flags         synthFlags
		outputFormat  string
		clusterByType bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a dependency graph of the stack",
		Long: `Generate a DOT or Mermaid graph of the declared resources.

The output can be rendered with Graphviz:
    wetwire-eks graph | dot -Tpng -o deps.png

Or embedded in markdown:
    wetwire-eks graph -f mermaid

Examples:
    wetwire-eks graph
    wetwire-eks graph --cluster              # group by service
    wetwire-eks graph -f mermaid --policy merged`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format graph.Format
			switch outputFormat {
			case "dot":
				format = graph.FormatDOT
			case "mermaid":
				format = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			s, err := flags.synthesize(cmd, g.log())
			if err != nil {
				return err
			}
			resolved, err := s.Resolve()
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:        format,
				ClusterByType: clusterByType,
			}
			return gen.Generate(resolved, cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVar(&clusterByType, "cluster", false, "Cluster resources by service")

	return cmd
}
