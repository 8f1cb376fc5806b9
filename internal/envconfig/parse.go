package envconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

// ContextKey is the context entry holding the environment configurations.
const ContextKey = "envconfigs"

//go:embed schema/envconfigs.schema.json
var schemaJSON string

const schemaURL = "envconfigs.schema.json"

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Parse decodes an envconfigs mapping (YAML or JSON) into environments in
// document order. An empty or null mapping yields no environments.
func Parse(data []byte) ([]Environment, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ContextKey, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return decodeEnvironments(doc.Content[0])
}

func validateSchema(data []byte) error {
	sch, err := loadSchema()
	if err != nil {
		return fmt.Errorf("loading %s schema: %w", ContextKey, err)
	}

	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", ContextKey, err)
	}

	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return fmt.Errorf("parsing %s: %w", ContextKey, err)
	}

	if err := sch.Validate(document); err != nil {
		return fmt.Errorf("invalid %s: %w", ContextKey, err)
	}
	return nil
}

func decodeEnvironments(node *yaml.Node) ([]Environment, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s must be a mapping of environment name to settings", ContextKey)
	}

	envs := make([]Environment, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		env := Environment{Name: node.Content[i].Value}
		if err := node.Content[i+1].Decode(&env.Config); err != nil {
			return nil, fmt.Errorf("environment %q: %w", env.Name, err)
		}
		if err := env.Validate(); err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// FromContextFile reads a cdk.json-style file and returns the environments
// under context.envconfigs. A missing file section yields no environments.
func FromContextFile(path string) ([]Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	var root struct {
		Context map[string]yaml.Node `yaml:"context"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing context file %s: %w", path, err)
	}

	node, ok := root.Context[ContextKey]
	if !ok {
		return nil, nil
	}

	section, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", ContextKey, path, err)
	}
	return Parse(section)
}

// ParseOverride parses a "key=value" context override as given on the
// command line. Only the envconfigs key is understood.
func ParseOverride(override string) ([]Environment, error) {
	key, value, ok := strings.Cut(override, "=")
	if !ok {
		return nil, fmt.Errorf("context override %q: expected key=value", override)
	}
	if key != ContextKey {
		return nil, fmt.Errorf("context override %q: unknown key %q", override, key)
	}
	return Parse([]byte(value))
}
