// Package graph generates DOT and Mermaid dependency graphs of a synthesized stack.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	wetwire "github.com/lex00/wetwire-eks-go"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from resolved resources.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by service (EC2, EKS, IAM, Kubernetes).
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w. Edges point from
// a resource to what it needs; explicit ordering edges are drawn blue and
// dashed, property references solid.
func (g *Generator) Generate(resources []wetwire.ResolvedResource, w io.Writer) error {
	graph := g.buildGraph(resources)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(resources []wetwire.ResolvedResource) (string, error) {
	var sb strings.Builder
	if err := g.Generate(resources, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(resources []wetwire.ResolvedResource) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	// Nodes inside a cluster are only reachable through the subgraph that
	// owns them, so edges are drawn between the nodes recorded here.
	var nodes map[string]dot.Node
	if g.ClusterByType {
		nodes = g.addClusteredNodes(graph, resources)
	} else {
		nodes = make(map[string]dot.Node, len(resources))
		for _, res := range resources {
			nodes[res.Name] = graph.Node(res.Name).Label(label(res))
		}
	}

	for _, res := range resources {
		from := nodes[res.Name]
		explicit := make(map[string]bool, len(res.DependsOn))
		for _, dep := range res.DependsOn {
			to, ok := nodes[dep]
			if !ok {
				continue
			}
			explicit[dep] = true
			e := graph.Edge(from, to)
			e.Attr("color", "blue")
			e.Attr("style", "dashed")
		}
		for _, ref := range res.References {
			to, ok := nodes[ref]
			if !ok || explicit[ref] {
				continue
			}
			graph.Edge(from, to)
		}
	}

	return graph
}

// addClusteredNodes adds resource nodes grouped by service. Services with a
// single resource are not clustered. It returns every created node by
// resource name.
func (g *Generator) addClusteredNodes(graph *dot.Graph, resources []wetwire.ResolvedResource) map[string]dot.Node {
	nodes := make(map[string]dot.Node, len(resources))
	byService := make(map[string][]wetwire.ResolvedResource)
	for _, res := range resources {
		service := Service(res.Type)
		byService[service] = append(byService[service], res)
	}

	services := make([]string, 0, len(byService))
	for service := range byService {
		services = append(services, service)
	}
	sort.Strings(services)

	for _, service := range services {
		members := byService[service]
		if len(members) == 1 {
			nodes[members[0].Name] = graph.Node(members[0].Name).Label(label(members[0]))
			continue
		}
		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, res := range members {
			nodes[res.Name] = cluster.Node(res.Name).Label(label(res))
		}
	}
	return nodes
}

func label(res wetwire.ResolvedResource) string {
	return res.Name + "\\n[" + res.Type + "]"
}

// Service extracts the service from a CloudFormation type.
// e.g., "AWS::EKS::Nodegroup" -> "EKS", "Custom::AWSCDK-EKS-HelmChart" -> "Kubernetes"
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	switch {
	case parts[0] == "Custom":
		return "Kubernetes"
	case len(parts) == 3:
		return parts[1]
	default:
		return "Other"
	}
}
