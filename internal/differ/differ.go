// Package differ provides semantic comparison of synthesized templates.
//
// Kubernetes manifest properties are compared object by object so that a
// change to one Deployment inside an application unit is reported as such
// rather than as an opaque string change.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-eks-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
}

// Compare compares two templates and returns differences.
func Compare(template1, template2 *wetwire.Template, opts Options) (*Result, error) {
	result := &Result{}

	res1 := template1.Resources
	res2 := template2.Resources

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = wetwire.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a template from a JSON or YAML file.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes a JSON or YAML template.
func ParseTemplate(data []byte) (*wetwire.Template, error) {
	var template wetwire.Template

	if err := json.Unmarshal(data, &template); err != nil {
		template = wetwire.Template{}
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}

// Unified returns a unified diff of one resource's definition, or "" when the
// definitions are identical. A resource missing from either side diffs
// against an empty document.
func Unified(template1, template2 *wetwire.Template, resource string) (string, error) {
	a, err := resourceLines(template1, resource)
	if err != nil {
		return "", err
	}
	b, err := resourceLines(template2, resource)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "a/" + resource,
		ToFile:   "b/" + resource,
		Context:  3,
	})
}

func resourceLines(t *wetwire.Template, resource string) ([]string, error) {
	def, ok := t.Resources[resource]
	if !ok {
		return nil, nil
	}
	if props, ok := def.Properties["Manifest"]; ok {
		if objs, ok := decodeManifest(props); ok {
			expanded := def
			expanded.Properties = make(map[string]any, len(def.Properties))
			for k, v := range def.Properties {
				expanded.Properties[k] = v
			}
			expanded.Properties["Manifest"] = objs
			def = expanded
		}
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", resource, err)
	}
	return difflib.SplitLines(string(data) + "\n"), nil
}

func compareResources(def1, def2 wetwire.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareProperties compares property maps one level deep. Kubernetes
// manifest values are expanded into per-object changes.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		val1, exists := props1[key]
		switch {
		case !exists:
			changes = append(changes, fmt.Sprintf("%s added", path))
		case deepEqual(val1, val2, opts):
		case key == "Manifest":
			changes = append(changes, compareManifests(path, val1, val2, opts)...)
		default:
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// compareManifests reports added, removed and modified Kubernetes objects.
// Values that are not decodable manifests are reported as a whole.
func compareManifests(path string, v1, v2 any, opts Options) []string {
	objs1, ok1 := decodeManifest(v1)
	objs2, ok2 := decodeManifest(v2)
	if !ok1 || !ok2 {
		return []string{fmt.Sprintf("%s modified", path)}
	}

	byKey1 := indexObjects(objs1)
	byKey2 := indexObjects(objs2)

	var changes []string
	for key, obj2 := range byKey2 {
		obj1, exists := byKey1[key]
		switch {
		case !exists:
			changes = append(changes, fmt.Sprintf("%s: %s added", path, key))
		case !deepEqual(obj1, obj2, opts):
			changes = append(changes, fmt.Sprintf("%s: %s modified", path, key))
		}
	}
	for key := range byKey1 {
		if _, exists := byKey2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s: %s removed", path, key))
		}
	}
	if len(changes) == 0 {
		// Same objects, different encoding or token bindings.
		changes = append(changes, fmt.Sprintf("%s modified", path))
	}
	return changes
}

// decodeManifest decodes a Manifest property: a JSON array string, or an
// Fn::Sub whose template string is one.
func decodeManifest(v any) ([]any, bool) {
	var text string
	switch val := v.(type) {
	case string:
		text = val
	case map[string]any:
		sub, ok := val["Fn::Sub"].([]any)
		if !ok || len(sub) == 0 {
			return nil, false
		}
		if text, ok = sub[0].(string); !ok {
			return nil, false
		}
	default:
		return nil, false
	}

	var objs []any
	if err := json.Unmarshal([]byte(text), &objs); err != nil {
		return nil, false
	}
	return objs, true
}

// indexObjects keys objects by "Kind namespace/name".
func indexObjects(objs []any) map[string]any {
	index := make(map[string]any, len(objs))
	for i, obj := range objs {
		m, _ := obj.(map[string]any)
		meta, _ := m["metadata"].(map[string]any)
		kind, _ := m["kind"].(string)
		name, _ := meta["name"].(string)
		namespace, _ := meta["namespace"].(string)

		key := kind + " " + name
		if namespace != "" {
			key = kind + " " + namespace + "/" + name
		}
		if kind == "" && name == "" {
			key = fmt.Sprintf("#%d", i)
		}
		index[key] = obj
	}
	return index
}

// deepEqual compares two values deeply, optionally ignoring array order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts arrays by their JSON encoding, recursively.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		keys := make([]string, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
			data, _ := json.Marshal(result[i])
			keys[i] = string(data)
		}
		sort.Sort(byKey{result, keys})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

type byKey struct {
	values []any
	keys   []string
}

func (s byKey) Len() int           { return len(s.values) }
func (s byKey) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s byKey) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
