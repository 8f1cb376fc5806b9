// Package template builds CloudFormation templates from stack declarations.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/serialize"
)

// logicalID is the CloudFormation constraint on resource names.
var logicalID = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Builder constructs CloudFormation templates from declarations.
type Builder struct {
	declarations []wetwire.Declaration
	parameters   map[string]wetwire.Parameter
	outputs      map[string]wetwire.Output
	metadata     map[string]any
	description  string
}

// NewBuilder creates a template builder for the given declarations.
func NewBuilder(declarations []wetwire.Declaration) *Builder {
	return &Builder{
		declarations: declarations,
		parameters:   make(map[string]wetwire.Parameter),
		outputs:      make(map[string]wetwire.Output),
		metadata:     make(map[string]any),
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// AddParameter adds a template parameter. Refs to parameters are not
// treated as resource dependencies.
func (b *Builder) AddParameter(name string, param wetwire.Parameter) {
	b.parameters[name] = param
}

// AddOutput adds a template output.
func (b *Builder) AddOutput(name string, output wetwire.Output) {
	b.outputs[name] = output
}

// SetMetadata sets a top-level template metadata key.
func (b *Builder) SetMetadata(key string, value any) {
	b.metadata[key] = value
}

type node struct {
	decl       wetwire.Declaration
	props      map[string]any
	references []string
	dependsOn  []string
}

// Resolve analyses the declarations and returns them in apply order.
func (b *Builder) Resolve() ([]wetwire.ResolvedResource, error) {
	nodes, order, err := b.resolve()
	if err != nil {
		return nil, err
	}

	resolved := make([]wetwire.ResolvedResource, 0, len(order))
	for _, name := range order {
		n := nodes[name]
		resolved = append(resolved, wetwire.ResolvedResource{
			Name:       name,
			Type:       n.decl.Resource.ResourceType(),
			DependsOn:  n.dependsOn,
			References: n.references,
		})
	}
	return resolved, nil
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*wetwire.Template, error) {
	nodes, order, err := b.resolve()
	if err != nil {
		return nil, err
	}

	template := &wetwire.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.description,
		Resources:                make(map[string]wetwire.ResourceDef, len(order)),
	}

	if len(b.metadata) > 0 {
		template.Metadata = b.metadata
	}
	if len(b.parameters) > 0 {
		template.Parameters = b.parameters
	}

	for _, name := range order {
		n := nodes[name]
		template.Resources[name] = wetwire.ResourceDef{
			Type:       n.decl.Resource.ResourceType(),
			Properties: n.props,
			DependsOn:  n.dependsOn,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]wetwire.Output, len(b.outputs))
		for name, out := range b.outputs {
			value, err := normalize(out.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			for _, ref := range serialize.References(value) {
				if _, ok := nodes[ref]; !ok {
					if _, isParam := b.parameters[ref]; !isParam {
						return nil, fmt.Errorf("output %s references unknown resource %s", name, ref)
					}
				}
			}
			out.Value = value
			template.Outputs[name] = out
		}
	}

	return template, nil
}

func (b *Builder) resolve() (map[string]*node, []string, error) {
	nodes := make(map[string]*node, len(b.declarations))

	for _, decl := range b.declarations {
		if !logicalID.MatchString(decl.Name) {
			return nil, nil, fmt.Errorf("invalid logical ID %q: must be non-empty and alphanumeric", decl.Name)
		}
		if decl.Resource == nil {
			return nil, nil, fmt.Errorf("resource %s has no value", decl.Name)
		}
		if _, dup := nodes[decl.Name]; dup {
			return nil, nil, fmt.Errorf("duplicate logical ID %s", decl.Name)
		}
		if _, clash := b.parameters[decl.Name]; clash {
			return nil, nil, fmt.Errorf("logical ID %s is already used by a parameter", decl.Name)
		}

		props, err := serialize.Properties(decl.Resource)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing %s: %w", decl.Name, err)
		}
		if len(props) == 0 {
			props = nil
		}

		nodes[decl.Name] = &node{
			decl:      decl,
			props:     props,
			dependsOn: uniqueSorted(decl.DependsOn),
		}
	}

	for _, decl := range b.declarations {
		name, n := decl.Name, nodes[decl.Name]
		for _, dep := range n.dependsOn {
			if dep == name {
				return nil, nil, fmt.Errorf("resource %s depends on itself", name)
			}
			if _, ok := nodes[dep]; !ok {
				return nil, nil, fmt.Errorf("resource %s depends on unknown resource %s", name, dep)
			}
		}
		for _, ref := range serialize.References(n.props) {
			if _, isParam := b.parameters[ref]; isParam {
				continue
			}
			if _, ok := nodes[ref]; !ok {
				return nil, nil, fmt.Errorf("resource %s references unknown resource %s", name, ref)
			}
			n.references = append(n.references, ref)
		}
	}

	order, err := topologicalSort(nodes)
	if err != nil {
		return nil, nil, err
	}
	return nodes, order, nil
}

// edges returns the union of explicit and implicit dependencies of n.
func (n *node) edges() []string {
	return uniqueSorted(append(append([]string{}, n.dependsOn...), n.references...))
}

// topologicalSort returns resources in dependency order.
// Ties are broken by logical ID so the output is deterministic.
func topologicalSort(nodes map[string]*node) ([]string, error) {
	graph := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))

	for name := range nodes {
		inDegree[name] = 0
	}
	for name := range nodes {
		for _, dep := range nodes[name].edges() {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, dependent := range graph[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(nodes) {
		return nil, detectCycle(nodes)
	}
	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func detectCycle(nodes map[string]*node) error {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	var stack []string
	var cycle []string

	var findCycle func(name string) bool
	findCycle = func(name string) bool {
		visited[name] = true
		stack = append(stack, name)

		for _, dep := range nodes[name].edges() {
			if i := indexOf(stack, dep); i >= 0 {
				cycle = append(append([]string{}, stack[i:]...), dep)
				return true
			}
			if !visited[dep] && findCycle(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		return false
	}

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) == 0 {
		return errors.New("circular dependency detected")
	}
	return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " → "))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
