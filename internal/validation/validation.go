// Package validation checks synthesized templates.
//
// Three layers are applied:
//   - cfn-lint-go: CloudFormation rules (library dependency)
//   - schema: required properties and enum values of the declared types
//   - kubernetes checks: every manifest and Helm values property must decode,
//     and every Kubernetes object must carry apiVersion, kind and a name
package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/schema"
	"github.com/lex00/wetwire-eks-go/internal/template"
)

// Custom resource types applied by the kubectl provider.
const (
	KubernetesResourceType = "Custom::AWSCDK-EKS-KubernetesResource"
	HelmChartType          = "Custom::AWSCDK-EKS-HelmChart"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *wetwire.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	dir, err := os.MkdirTemp("", "wetwire-eks-validate-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// CheckKubernetes validates the Kubernetes custom resources of t and returns
// one message per problem, sorted by resource name.
func CheckKubernetes(t *wetwire.Template) []string {
	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		def := t.Resources[name]
		switch def.Type {
		case KubernetesResourceType:
			problems = append(problems, checkManifest(name, def.Properties)...)
		case HelmChartType:
			problems = append(problems, checkHelmChart(name, def.Properties)...)
		default:
			continue
		}
		if _, ok := def.Properties["ServiceToken"]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing ServiceToken", name))
		}
	}
	return problems
}

func checkManifest(name string, props map[string]any) []string {
	text, ok := templateText(props["Manifest"])
	if !ok {
		return []string{fmt.Sprintf("%s: Manifest must be a string or Fn::Sub", name)}
	}

	var objs []map[string]any
	if err := json.Unmarshal([]byte(text), &objs); err != nil {
		return []string{fmt.Sprintf("%s: Manifest is not a JSON array of objects: %v", name, err)}
	}
	if len(objs) == 0 {
		return []string{fmt.Sprintf("%s: Manifest is empty", name)}
	}

	var problems []string
	for i, obj := range objs {
		for _, field := range []string{"apiVersion", "kind"} {
			if s, _ := obj[field].(string); s == "" {
				problems = append(problems, fmt.Sprintf("%s: object %d has no %s", name, i+1, field))
			}
		}
		meta, _ := obj["metadata"].(map[string]any)
		if s, _ := meta["name"].(string); s == "" {
			problems = append(problems, fmt.Sprintf("%s: object %d has no metadata.name", name, i+1))
		}
	}
	return problems
}

func checkHelmChart(name string, props map[string]any) []string {
	var problems []string
	for _, field := range []string{"Chart", "Release", "Repository"} {
		if s, _ := props[field].(string); s == "" {
			problems = append(problems, fmt.Sprintf("%s: missing %s", name, field))
		}
	}
	if values, ok := props["Values"]; ok {
		text, ok := templateText(values)
		var decoded map[string]any
		if !ok || json.Unmarshal([]byte(text), &decoded) != nil {
			problems = append(problems, fmt.Sprintf("%s: Values is not a JSON object", name))
		}
	}
	return problems
}

// templateText returns the text of a plain string or of an Fn::Sub template.
func templateText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case map[string]any:
		switch sub := val["Fn::Sub"].(type) {
		case string:
			return sub, true
		case []any:
			if len(sub) > 0 {
				s, ok := sub[0].(string)
				return s, ok
			}
		}
	}
	return "", false
}

// Validate runs every check and summarizes the outcome.
func Validate(t *wetwire.Template) (wetwire.ValidateResult, error) {
	result := wetwire.ValidateResult{Resources: len(t.Resources)}

	lintResult, err := LintTemplate(t)
	if err != nil {
		return result, err
	}
	result.Errors = append(result.Errors, lintResult.Errors...)
	result.Warnings = append(result.Warnings, lintResult.Warnings...)

	schemaResult := schema.ValidateTemplate(t, schema.Options{})
	for _, issue := range schemaResult.Errors {
		result.Errors = append(result.Errors, issue.String())
	}
	for _, issue := range schemaResult.Warnings {
		result.Warnings = append(result.Warnings, issue.String())
	}

	result.Errors = append(result.Errors, CheckKubernetes(t)...)

	result.Success = len(result.Errors) == 0
	return result, nil
}
