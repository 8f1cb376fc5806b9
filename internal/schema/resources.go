package schema

var (
	str  = PropertySchema{Type: "String"}
	flag = PropertySchema{Type: "Boolean"}
	list = PropertySchema{Type: "List"}
	obj  = PropertySchema{Type: "Map"}
	// anyValue accepts documents given either inline or as an intrinsic.
	anyValue = PropertySchema{}
)

// resourceSchemas covers the resource types the cluster stack declares.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::EC2::VPC": {
		Required: []string{"CidrBlock"},
		Properties: map[string]PropertySchema{
			"CidrBlock":          str,
			"EnableDnsHostnames": flag,
			"EnableDnsSupport":   flag,
			"InstanceTenancy":    {Type: "String", AllowedValues: []string{"default", "dedicated", "host"}},
			"Tags":               list,
		},
	},
	"AWS::EC2::Subnet": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"VpcId":               str,
			"CidrBlock":           str,
			"AvailabilityZone":    str,
			"MapPublicIpOnLaunch": flag,
			"Tags":                list,
		},
	},
	"AWS::EC2::InternetGateway": {
		Properties: map[string]PropertySchema{"Tags": list},
	},
	"AWS::EC2::VPCGatewayAttachment": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"VpcId":             str,
			"InternetGatewayId": str,
		},
	},
	"AWS::EC2::EIP": {
		Properties: map[string]PropertySchema{
			"Domain": {Type: "String", AllowedValues: []string{"vpc", "standard"}},
			"Tags":   list,
		},
	},
	"AWS::EC2::NatGateway": {
		Required: []string{"SubnetId"},
		Properties: map[string]PropertySchema{
			"AllocationId": str,
			"SubnetId":     str,
			"Tags":         list,
		},
	},
	"AWS::EC2::RouteTable": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"VpcId": str,
			"Tags":  list,
		},
	},
	"AWS::EC2::Route": {
		Required: []string{"RouteTableId"},
		Properties: map[string]PropertySchema{
			"RouteTableId":         str,
			"DestinationCidrBlock": str,
			"GatewayId":            str,
			"NatGatewayId":         str,
		},
	},
	"AWS::EC2::SubnetRouteTableAssociation": {
		Required: []string{"RouteTableId", "SubnetId"},
		Properties: map[string]PropertySchema{
			"RouteTableId": str,
			"SubnetId":     str,
		},
	},
	"AWS::IAM::Role": {
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"RoleName":                 str,
			"Description":              str,
			"AssumeRolePolicyDocument": anyValue,
			"ManagedPolicyArns":        list,
			"Policies":                 list,
			"Tags":                     list,
		},
	},
	"AWS::IAM::OIDCProvider": {
		Required: []string{"Url", "ClientIdList"},
		Properties: map[string]PropertySchema{
			"Url":            str,
			"ClientIdList":   list,
			"ThumbprintList": list,
		},
	},
	"AWS::EKS::Cluster": {
		Required: []string{"RoleArn", "ResourcesVpcConfig"},
		Properties: map[string]PropertySchema{
			"Name":               str,
			"Version":            str,
			"RoleArn":            str,
			"ResourcesVpcConfig": obj,
			"AccessConfig":       obj,
			"Tags":               list,
		},
	},
	"AWS::EKS::Nodegroup": {
		Required: []string{"ClusterName", "NodeRole", "Subnets"},
		Properties: map[string]PropertySchema{
			"ClusterName":   str,
			"NodeRole":      str,
			"Subnets":       list,
			"InstanceTypes": list,
			"AmiType": {Type: "String", AllowedValues: []string{
				"AL2_x86_64", "AL2_x86_64_GPU", "AL2_ARM_64",
				"BOTTLEROCKET_x86_64", "BOTTLEROCKET_ARM_64",
				"AL2023_x86_64_STANDARD", "AL2023_ARM_64_STANDARD",
				"CUSTOM",
			}},
			"ScalingConfig": obj,
			"RemoteAccess":  obj,
			"Labels":        obj,
		},
	},
	"Custom::AWSCDK-EKS-KubernetesResource": {
		Required: []string{"ServiceToken", "ClusterName", "Manifest"},
		Properties: map[string]PropertySchema{
			"ServiceToken": str,
			"ClusterName":  str,
			"RoleArn":      str,
			"Manifest":     str,
			"Overwrite":    flag,
			"PruneLabel":   str,
		},
	},
	"Custom::AWSCDK-EKS-HelmChart": {
		Required: []string{"ServiceToken", "ClusterName", "Chart"},
		Properties: map[string]PropertySchema{
			"ServiceToken":    str,
			"ClusterName":     str,
			"RoleArn":         str,
			"Release":         str,
			"Chart":           str,
			"Version":         str,
			"Repository":      str,
			"Namespace":       str,
			"CreateNamespace": flag,
			"Wait":            flag,
			"Timeout":         str,
			"Values":          str,
		},
	},
}
