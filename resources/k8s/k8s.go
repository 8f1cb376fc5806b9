// Package k8s provides the custom resources that apply Kubernetes objects and
// Helm releases to an EKS cluster.
//
// Both types are handled by the kubectl provider Lambda, referenced through
// ServiceToken. The provider applies Manifest documents with kubectl and
// installs HelmChart releases with helm; deletion of the custom resource
// removes the objects again.
package k8s

// Manifest represents a group of Kubernetes objects applied as one unit.
type Manifest struct {
	ServiceToken any `json:"ServiceToken,omitempty"`
	ClusterName  any `json:"ClusterName,omitempty"`
	RoleArn      any `json:"RoleArn,omitempty"`
	// Manifest is a JSON array of Kubernetes objects, or an Fn::Sub that renders one.
	Manifest  any  `json:"Manifest,omitempty"`
	Overwrite bool `json:"Overwrite,omitempty"`
	// PruneLabel enables pruning of objects removed from the group.
	PruneLabel string `json:"PruneLabel,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Manifest) ResourceType() string { return "Custom::AWSCDK-EKS-KubernetesResource" }

// HelmChart represents a Helm release.
type HelmChart struct {
	ServiceToken    any    `json:"ServiceToken,omitempty"`
	ClusterName     any    `json:"ClusterName,omitempty"`
	RoleArn         any    `json:"RoleArn,omitempty"`
	Release         string `json:"Release,omitempty"`
	Chart           string `json:"Chart,omitempty"`
	Version         string `json:"Version,omitempty"`
	Repository      string `json:"Repository,omitempty"`
	Namespace       string `json:"Namespace,omitempty"`
	CreateNamespace bool   `json:"CreateNamespace,omitempty"`
	Wait            bool   `json:"Wait,omitempty"`
	Timeout         string `json:"Timeout,omitempty"`
	// Values is a JSON object, or an Fn::Sub that renders one.
	Values any `json:"Values,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (HelmChart) ResourceType() string { return "Custom::AWSCDK-EKS-HelmChart" }
