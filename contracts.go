// Package wetwire_eks declares an EKS cluster stack as a graph of CloudFormation
// resources and synthesizes it into a template for an external deployment engine.
//
// Resources are plain Go structs from the resources/ packages:
//
//	var cluster = eks.Cluster{
//	    Name:    "EksCluster",
//	    Version: "1.28",
//	    RoleArn: clusterRole.Attr("Arn"),  // GetAtt reference
//	}
//
// The stack package assembles them into Declarations, and the template package
// orders the declarations by their dependency edges and serializes them.
package wetwire_eks

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource types (ec2.VPC, eks.Cluster, k8s.Manifest, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::EKS::Cluster")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["ClusterRole", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "OpenIdConnectIssuerUrl")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Declaration is one named resource in the desired-state graph.
type Declaration struct {
	// Name is the logical ID in the synthesized template
	Name string
	// Resource is the typed resource value
	Resource Resource
	// DependsOn lists logical IDs that must be applied before this one.
	// References found in the resource properties are added implicitly.
	DependsOn []string
}

// DependencyEdge is an explicit ordering constraint: From is applied after To.
type DependencyEdge struct {
	From string
	To   string
}

// ResolvedResource is a declaration after dependency analysis.
type ResolvedResource struct {
	Name string
	Type string
	// DependsOn are the explicit edges
	DependsOn []string
	// References are the logical IDs found in Ref/GetAtt/Sub expressions
	References []string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Metadata                 map[string]any         `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string   `json:"Type" yaml:"Type"`
	Description   string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any      `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []string `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string        `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any           `json:"Value" yaml:"Value"`
	Export      *OutputExport `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// OutputExport names a cross-stack export.
type OutputExport struct {
	Name string `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `wetwire-eks synth`.
type BuildResult struct {
	Success      bool     `json:"success"`
	Template     Template `json:"template,omitempty"`
	Resources    []string `json:"resources,omitempty"`
	Environments []string `json:"environments,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-eks validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-eks list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output, in apply order.
type ListResource struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// TemplateDiff groups resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
