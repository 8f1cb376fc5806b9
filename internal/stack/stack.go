// Package stack declares the EKS cluster stack as a graph of resources.
//
// A Stack only records declarations and ordering edges; it never talks to
// AWS or Kubernetes. The synthesized template is applied later by
// CloudFormation and the kubectl provider.
package stack

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/intrinsics"
	"github.com/lex00/wetwire-eks-go/internal/template"
)

var logicalID = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Node is a declared resource.
type Node struct {
	ID   string
	Type string
}

// Ref returns a Ref to the resource.
func (n Node) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: n.ID}
}

// Attr returns a GetAtt reference to one of the resource's attributes.
func (n Node) Attr(name string) wetwire.AttrRef {
	return wetwire.AttrRef{Resource: n.ID, Attribute: name}
}

// Stack collects declarations. The first error encountered is kept and
// returned by Err, Template and Resolve; later calls become no-ops.
type Stack struct {
	name        string
	description string
	log         *zap.Logger

	decls      []wetwire.Declaration
	index      map[string]int
	parameters map[string]wetwire.Parameter
	outputs    map[string]wetwire.Output
	metadata   map[string]any
	tokens     tokenRegistry

	cluster *clusterRefs
	err     error
}

// Option configures a Stack.
type Option func(*Stack)

// WithLogger sets the logger used to trace declarations.
func WithLogger(log *zap.Logger) Option {
	return func(s *Stack) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an empty stack.
func New(name string, opts ...Option) *Stack {
	s := &Stack{
		name:       name,
		log:        zap.NewNop(),
		index:      make(map[string]int),
		parameters: make(map[string]wetwire.Parameter),
		outputs:    make(map[string]wetwire.Output),
		metadata:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stack name.
func (s *Stack) Name() string {
	return s.name
}

// SetDescription sets the template description.
func (s *Stack) SetDescription(description string) {
	s.description = description
}

// SetMetadata sets a template metadata entry.
func (s *Stack) SetMetadata(key string, value any) {
	s.metadata[key] = value
}

// Add declares a resource. dependsOn are explicit ordering edges; references
// inside the resource properties are tracked automatically.
func (s *Stack) Add(id string, res wetwire.Resource, dependsOn ...string) Node {
	if s.err != nil {
		return Node{ID: id}
	}
	if !logicalID.MatchString(id) {
		s.fail(fmt.Errorf("invalid logical ID %q: must be non-empty and alphanumeric", id))
		return Node{ID: id}
	}
	if res == nil {
		s.fail(fmt.Errorf("resource %s has no value", id))
		return Node{ID: id}
	}
	if _, exists := s.index[id]; exists {
		s.fail(fmt.Errorf("duplicate logical ID %s", id))
		return Node{ID: id}
	}

	s.index[id] = len(s.decls)
	s.decls = append(s.decls, wetwire.Declaration{
		Name:      id,
		Resource:  res,
		DependsOn: append([]string(nil), dependsOn...),
	})
	s.log.Debug("declared resource",
		zap.String("id", id),
		zap.String("type", res.ResourceType()),
		zap.Strings("dependsOn", dependsOn),
	)
	return Node{ID: id, Type: res.ResourceType()}
}

// AddDependency records that dependent must be applied after dependency.
func (s *Stack) AddDependency(dependent, dependency string) {
	if s.err != nil {
		return
	}
	i, ok := s.index[dependent]
	if !ok {
		s.fail(fmt.Errorf("dependency from undeclared resource %s", dependent))
		return
	}
	s.decls[i].DependsOn = append(s.decls[i].DependsOn, dependency)
}

// Has reports whether id has been declared.
func (s *Stack) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// AddParameter declares a template parameter and returns a Ref to it.
func (s *Stack) AddParameter(name string, param wetwire.Parameter) intrinsics.Ref {
	s.parameters[name] = param
	return intrinsics.Ref{LogicalName: name}
}

// AddOutput declares a template output.
func (s *Stack) AddOutput(name string, output wetwire.Output) {
	s.outputs[name] = output
}

// Declarations returns the declared resources in declaration order.
func (s *Stack) Declarations() []wetwire.Declaration {
	return append([]wetwire.Declaration(nil), s.decls...)
}

// Edges returns every explicit ordering edge in declaration order.
func (s *Stack) Edges() []wetwire.DependencyEdge {
	var edges []wetwire.DependencyEdge
	for _, d := range s.decls {
		for _, dep := range d.DependsOn {
			edges = append(edges, wetwire.DependencyEdge{From: d.Name, To: dep})
		}
	}
	return edges
}

// Err returns the first declaration error.
func (s *Stack) Err() error {
	return s.err
}

func (s *Stack) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Stack) builder() *template.Builder {
	b := template.NewBuilder(s.decls)
	b.SetDescription(s.description)
	for name, p := range s.parameters {
		b.AddParameter(name, p)
	}
	for name, o := range s.outputs {
		b.AddOutput(name, o)
	}
	for key, v := range s.metadata {
		b.SetMetadata(key, v)
	}
	return b
}

// Template synthesizes the CloudFormation template.
func (s *Stack) Template() (*wetwire.Template, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.builder().Build()
}

// Resolve returns the declarations in apply order.
func (s *Stack) Resolve() ([]wetwire.ResolvedResource, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.builder().Resolve()
}
