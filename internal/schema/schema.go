// Package schema provides offline validation of the resource types the
// cluster stack declares. It catches missing required properties and bad
// enum values before a template reaches CloudFormation.
package schema

import (
	"fmt"
	"sort"
	"strings"

	wetwire "github.com/lex00/wetwire-eks-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Issue is one schema violation.
type Issue struct {
	Resource string
	Property string
	Message  string
}

func (i Issue) String() string {
	if i.Property == "" {
		return fmt.Sprintf("%s: %s", i.Resource, i.Message)
	}
	return fmt.Sprintf("%s.%s: %s", i.Resource, i.Property, i.Message)
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

// ValidateTemplate validates every resource of template. Issues are sorted
// by resource and property.
func ValidateTemplate(template *wetwire.Template, opts Options) *Result {
	result := &Result{Valid: true}

	for name, resource := range template.Resources {
		errs, warnings := validateResource(name, resource, opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	sortIssues(result.Errors)
	sortIssues(result.Warnings)
	result.Valid = len(result.Errors) == 0
	return result
}

func validateResource(name string, resource wetwire.ResourceDef, opts Options) (errs, warnings []Issue) {
	if !isValidResourceType(resource.Type) {
		errs = append(errs, Issue{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
		return errs, warnings
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, Issue{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, Issue{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	for propName, propValue := range resource.Properties {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Issue{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}
		errs = append(errs, validateProperty(name, propName, propValue, propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType accepts AWS::Service::Resource and Custom::Name.
func isValidResourceType(resourceType string) bool {
	if name, ok := strings.CutPrefix(resourceType, "Custom::"); ok {
		return name != ""
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return false
	}
	return parts[0] == "AWS"
}

func validateProperty(resource, property string, value any, schema PropertySchema) []Issue {
	var errs []Issue

	if !isValidType(value, schema.Type) {
		errs = append(errs, Issue{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	if len(schema.AllowedValues) > 0 {
		if s, ok := value.(string); ok && !contains(schema.AllowedValues, s) {
			errs = append(errs, Issue{
				Resource: resource,
				Property: property,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", s, schema.AllowedValues),
			})
		}
	}

	return errs
}

// isValidType checks a serialized value against a schema type. Intrinsic
// functions match every type.
func isValidType(value any, expectedType string) bool {
	if m, ok := value.(map[string]any); ok && len(m) == 1 {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortIssues(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Resource != issues[j].Resource {
			return issues[i].Resource < issues[j].Resource
		}
		return issues[i].Property < issues[j].Property
	})
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}
