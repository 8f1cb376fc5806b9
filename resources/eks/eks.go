// Package eks provides the AWS::EKS resource types.
package eks

import (
	"github.com/lex00/wetwire-eks-go/intrinsics"
)

// Cluster represents AWS::EKS::Cluster.
type Cluster struct {
	Name               string                      `json:"Name,omitempty"`
	Version            string                      `json:"Version,omitempty"`
	RoleArn            any                         `json:"RoleArn,omitempty"`
	ResourcesVpcConfig *Cluster_ResourcesVpcConfig `json:"ResourcesVpcConfig,omitempty"`
	AccessConfig       *Cluster_AccessConfig       `json:"AccessConfig,omitempty"`
	Tags               []intrinsics.Tag            `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Cluster) ResourceType() string { return "AWS::EKS::Cluster" }

// Cluster_ResourcesVpcConfig places the control plane ENIs.
type Cluster_ResourcesVpcConfig struct {
	SubnetIds             []any `json:"SubnetIds,omitempty"`
	SecurityGroupIds      []any `json:"SecurityGroupIds,omitempty"`
	EndpointPublicAccess  bool  `json:"EndpointPublicAccess,omitempty"`
	EndpointPrivateAccess bool  `json:"EndpointPrivateAccess,omitempty"`
}

// Cluster_AccessConfig selects how IAM principals are mapped to Kubernetes users.
type Cluster_AccessConfig struct {
	AuthenticationMode                      string `json:"AuthenticationMode,omitempty"`
	BootstrapClusterCreatorAdminPermissions bool   `json:"BootstrapClusterCreatorAdminPermissions,omitempty"`
}

// Nodegroup represents AWS::EKS::Nodegroup.
type Nodegroup struct {
	ClusterName   any                      `json:"ClusterName,omitempty"`
	NodeRole      any                      `json:"NodeRole,omitempty"`
	Subnets       []any                    `json:"Subnets,omitempty"`
	InstanceTypes []string                 `json:"InstanceTypes,omitempty"`
	AmiType       string                   `json:"AmiType,omitempty"`
	ScalingConfig *Nodegroup_ScalingConfig `json:"ScalingConfig,omitempty"`
	RemoteAccess  *Nodegroup_RemoteAccess  `json:"RemoteAccess,omitempty"`
	Labels        map[string]string        `json:"Labels,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Nodegroup) ResourceType() string { return "AWS::EKS::Nodegroup" }

// Nodegroup_ScalingConfig sizes the managed node group.
type Nodegroup_ScalingConfig struct {
	DesiredSize int `json:"DesiredSize,omitempty"`
	MinSize     int `json:"MinSize,omitempty"`
	MaxSize     int `json:"MaxSize,omitempty"`
}

// Nodegroup_RemoteAccess enables SSH access to the nodes.
type Nodegroup_RemoteAccess struct {
	Ec2SshKey            string `json:"Ec2SshKey,omitempty"`
	SourceSecurityGroups []any  `json:"SourceSecurityGroups,omitempty"`
}
