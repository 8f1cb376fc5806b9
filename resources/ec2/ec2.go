// Package ec2 provides the AWS::EC2 resource types used by the cluster network.
package ec2

import (
	"github.com/lex00/wetwire-eks-go/intrinsics"
)

// VPC represents AWS::EC2::VPC.
type VPC struct {
	CidrBlock          any              `json:"CidrBlock,omitempty"`
	EnableDnsHostnames bool             `json:"EnableDnsHostnames,omitempty"`
	EnableDnsSupport   bool             `json:"EnableDnsSupport,omitempty"`
	InstanceTenancy    string           `json:"InstanceTenancy,omitempty"`
	Tags               []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (VPC) ResourceType() string { return "AWS::EC2::VPC" }

// Subnet represents AWS::EC2::Subnet.
type Subnet struct {
	VpcId               any              `json:"VpcId,omitempty"`
	CidrBlock           any              `json:"CidrBlock,omitempty"`
	AvailabilityZone    any              `json:"AvailabilityZone,omitempty"`
	MapPublicIpOnLaunch bool             `json:"MapPublicIpOnLaunch,omitempty"`
	Tags                []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Subnet) ResourceType() string { return "AWS::EC2::Subnet" }

// InternetGateway represents AWS::EC2::InternetGateway.
type InternetGateway struct {
	Tags []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (InternetGateway) ResourceType() string { return "AWS::EC2::InternetGateway" }

// VPCGatewayAttachment represents AWS::EC2::VPCGatewayAttachment.
type VPCGatewayAttachment struct {
	VpcId             any `json:"VpcId,omitempty"`
	InternetGatewayId any `json:"InternetGatewayId,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (VPCGatewayAttachment) ResourceType() string { return "AWS::EC2::VPCGatewayAttachment" }

// EIP represents AWS::EC2::EIP.
type EIP struct {
	Domain string           `json:"Domain,omitempty"`
	Tags   []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (EIP) ResourceType() string { return "AWS::EC2::EIP" }

// NatGateway represents AWS::EC2::NatGateway.
type NatGateway struct {
	AllocationId any              `json:"AllocationId,omitempty"`
	SubnetId     any              `json:"SubnetId,omitempty"`
	Tags         []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (NatGateway) ResourceType() string { return "AWS::EC2::NatGateway" }

// RouteTable represents AWS::EC2::RouteTable.
type RouteTable struct {
	VpcId any              `json:"VpcId,omitempty"`
	Tags  []intrinsics.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (RouteTable) ResourceType() string { return "AWS::EC2::RouteTable" }

// Route represents AWS::EC2::Route.
type Route struct {
	RouteTableId         any    `json:"RouteTableId,omitempty"`
	DestinationCidrBlock string `json:"DestinationCidrBlock,omitempty"`
	GatewayId            any    `json:"GatewayId,omitempty"`
	NatGatewayId         any    `json:"NatGatewayId,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Route) ResourceType() string { return "AWS::EC2::Route" }

// SubnetRouteTableAssociation represents AWS::EC2::SubnetRouteTableAssociation.
type SubnetRouteTableAssociation struct {
	RouteTableId any `json:"RouteTableId,omitempty"`
	SubnetId     any `json:"SubnetId,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (SubnetRouteTableAssociation) ResourceType() string {
	return "AWS::EC2::SubnetRouteTableAssociation"
}
