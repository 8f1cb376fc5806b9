// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds IAM policy types and Fn::Sub helpers used by the EKS stack.
//
// Core intrinsic functions:
//
//	Ref{"Vpc"} → {"Ref": "Vpc"}
//	Sub{"${AWS::Region}-logs"} → {"Fn::Sub": "${AWS::Region}-logs"}
//	Select{0, GetAZs{""}} → {"Fn::Select": [0, {"Fn::GetAZs": ""}]}
//
// Pseudo-parameters:
//
//	AWS_REGION, AWS_ACCOUNT_ID, AWS_PARTITION, etc.
package intrinsics

import (
	"regexp"
	"strings"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// GetAZs represents a CloudFormation Fn::GetAZs intrinsic function.
	GetAZs = intrinsics.GetAZs

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// subVariable matches ${Name} and ${Name.Attr}; ${!Literal} is an escape.
var subVariable = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// EscapeSub escapes literal "${" sequences so that Fn::Sub leaves them alone.
//
//	EscapeSub("echo ${HOME}") → "echo ${!HOME}"
func EscapeSub(s string) string {
	return strings.ReplaceAll(s, "${", "${!")
}

// SubVariables returns the variable names referenced by an Fn::Sub string,
// in order of first appearance. Pseudo-parameters (AWS::...) are skipped and
// attribute references (Name.Attr) are reduced to the logical name.
func SubVariables(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range subVariable.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if strings.HasPrefix(name, "AWS::") {
			continue
		}
		if i := strings.Index(name, "."); i >= 0 {
			name = name[:i]
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ManagedPolicyArn returns the partition-aware ARN of an AWS managed policy.
//
//	ManagedPolicyArn("AmazonEKSClusterPolicy")
//	→ {"Fn::Sub": "arn:${AWS::Partition}:iam::aws:policy/AmazonEKSClusterPolicy"}
func ManagedPolicyArn(name string) Sub {
	return Sub{String: "arn:${AWS::Partition}:iam::aws:policy/" + name}
}
