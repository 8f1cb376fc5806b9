// Package helmvalues renders Helm values files and layers overrides on top.
//
// A values file is a text/template (with the sprig function set) producing
// YAML. Rendering fails on missing template keys so that a typo in a values
// file is caught during synthesis instead of at apply time.
package helmvalues

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"text/template"

	"dario.cat/mergo"
	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/yaml"
)

// Data is passed to values templates.
type Data struct {
	ClusterName    string
	Region         string
	Namespace      string
	ServiceAccount string
	LogGroupPrefix string
}

// Load reads name from fsys, renders it with data and decodes the result.
func Load(fsys fs.FS, name string, data Data) (map[string]any, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading values %s: %w", name, err)
	}
	return Render(name, string(content), data)
}

// Render renders a values template and decodes the YAML it produces.
func Render(name, content string, data Data) (map[string]any, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing values %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering values %s: %w", name, err)
	}

	values := make(map[string]any)
	if err := yaml.Unmarshal(buf.Bytes(), &values); err != nil {
		return nil, fmt.Errorf("decoding values %s: %w", name, err)
	}
	return values, nil
}

// Merge layers overlays onto base, later layers winning. Nested maps are
// merged key by key; base is not modified.
func Merge(base map[string]any, overlays ...map[string]any) (map[string]any, error) {
	merged := make(map[string]any)
	for _, layer := range append([]map[string]any{base}, overlays...) {
		if err := mergo.Merge(&merged, deepCopy(layer), mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging values: %w", err)
		}
	}
	return merged, nil
}

// Encode renders values as compact JSON, the form the Helm provider expects.
func Encode(values map[string]any) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func deepCopy(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopy(nested)
		} else {
			out[k] = v
		}
	}
	return out
}
