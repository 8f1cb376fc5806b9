// Package iam provides the AWS::IAM resource types.
package iam

import (
	"github.com/lex00/wetwire-eks-go/intrinsics"
)

// Role represents AWS::IAM::Role.
type Role struct {
	RoleName                 string           `json:"RoleName,omitempty"`
	Description              string           `json:"Description,omitempty"`
	AssumeRolePolicyDocument any              `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any            `json:"ManagedPolicyArns,omitempty"`
	Policies                 []Role_Policy    `json:"Policies,omitempty"`
	Tags                     []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Role) ResourceType() string { return "AWS::IAM::Role" }

// Role_Policy is an inline policy attached to a role.
type Role_Policy struct {
	PolicyName     string `json:"PolicyName,omitempty"`
	PolicyDocument any    `json:"PolicyDocument,omitempty"`
}

// OIDCProvider represents AWS::IAM::OIDCProvider.
type OIDCProvider struct {
	Url            any      `json:"Url,omitempty"`
	ClientIdList   []string `json:"ClientIdList,omitempty"`
	ThumbprintList []string `json:"ThumbprintList,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (OIDCProvider) ResourceType() string { return "AWS::IAM::OIDCProvider" }
