package stack

import (
	"fmt"

	"github.com/lex00/wetwire-eks-go/intrinsics"
	"github.com/lex00/wetwire-eks-go/resources/ec2"
)

// Network layout.
const (
	VpcCidr = "10.0.0.0/16"
	MaxAZs  = 2
)

type networkRefs struct {
	Vpc            Node
	PrivateSubnets []Node
	PublicSubnets  []Node
}

// subnetCidr returns the index'th /24 of the VPC range.
func subnetCidr(index int) string {
	return fmt.Sprintf("10.0.%d.0/24", index)
}

func nameTag(name string) intrinsics.Tag {
	return intrinsics.Tag{Key: "Name", Value: intrinsics.Join{
		Delimiter: "/",
		Values:    []any{intrinsics.AWS_STACK_NAME, name},
	}}
}

// declareNetwork declares a VPC with one private-with-egress and one public
// subnet per AZ. Private subnets share a single NAT gateway placed in the
// first public subnet.
func declareNetwork(s *Stack) networkRefs {
	vpc := s.Add("Vpc", ec2.VPC{
		CidrBlock:          VpcCidr,
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		InstanceTenancy:    "default",
		Tags:               []intrinsics.Tag{nameTag("Vpc")},
	})

	refs := networkRefs{Vpc: vpc}
	for i := 0; i < MaxAZs; i++ {
		name := fmt.Sprintf("PrivateSubnet%d", i+1)
		refs.PrivateSubnets = append(refs.PrivateSubnets, s.Add(name, ec2.Subnet{
			VpcId:            vpc.Ref(),
			CidrBlock:        subnetCidr(i),
			AvailabilityZone: intrinsics.Select{Index: i, List: intrinsics.GetAZs{}},
			Tags: []intrinsics.Tag{
				nameTag(name),
				{Key: "aws-cdk:subnet-type", Value: "Private"},
				{Key: "kubernetes.io/role/internal-elb", Value: "1"},
			},
		}))
	}
	for i := 0; i < MaxAZs; i++ {
		name := fmt.Sprintf("PublicSubnet%d", i+1)
		refs.PublicSubnets = append(refs.PublicSubnets, s.Add(name, ec2.Subnet{
			VpcId:               vpc.Ref(),
			CidrBlock:           subnetCidr(MaxAZs+i),
			AvailabilityZone:    intrinsics.Select{Index: i, List: intrinsics.GetAZs{}},
			MapPublicIpOnLaunch: true,
			Tags: []intrinsics.Tag{
				nameTag(name),
				{Key: "aws-cdk:subnet-type", Value: "Public"},
				{Key: "kubernetes.io/role/elb", Value: "1"},
			},
		}))
	}

	igw := s.Add("InternetGateway", ec2.InternetGateway{
		Tags: []intrinsics.Tag{nameTag("InternetGateway")},
	})
	attachment := s.Add("VpcGatewayAttachment", ec2.VPCGatewayAttachment{
		VpcId:             vpc.Ref(),
		InternetGatewayId: igw.Ref(),
	})

	publicRT := s.Add("PublicRouteTable", ec2.RouteTable{
		VpcId: vpc.Ref(),
		Tags:  []intrinsics.Tag{nameTag("PublicRouteTable")},
	})
	// The default route needs the gateway attached, which no property expresses.
	s.Add("PublicDefaultRoute", ec2.Route{
		RouteTableId:         publicRT.Ref(),
		DestinationCidrBlock: "0.0.0.0/0",
		GatewayId:            igw.Ref(),
	}, attachment.ID)
	for i, subnet := range refs.PublicSubnets {
		s.Add(fmt.Sprintf("PublicSubnet%dRouteTableAssociation", i+1), ec2.SubnetRouteTableAssociation{
			RouteTableId: publicRT.Ref(),
			SubnetId:     subnet.Ref(),
		})
	}

	eip := s.Add("NatEip", ec2.EIP{
		Domain: "vpc",
		Tags:   []intrinsics.Tag{nameTag("NatEip")},
	}, attachment.ID)
	nat := s.Add("NatGateway", ec2.NatGateway{
		AllocationId: eip.Attr("AllocationId"),
		SubnetId:     refs.PublicSubnets[0].Ref(),
		Tags:         []intrinsics.Tag{nameTag("NatGateway")},
	})

	privateRT := s.Add("PrivateRouteTable", ec2.RouteTable{
		VpcId: vpc.Ref(),
		Tags:  []intrinsics.Tag{nameTag("PrivateRouteTable")},
	})
	s.Add("PrivateDefaultRoute", ec2.Route{
		RouteTableId:         privateRT.Ref(),
		DestinationCidrBlock: "0.0.0.0/0",
		NatGatewayId:         nat.Ref(),
	})
	for i, subnet := range refs.PrivateSubnets {
		s.Add(fmt.Sprintf("PrivateSubnet%dRouteTableAssociation", i+1), ec2.SubnetRouteTableAssociation{
			RouteTableId: privateRT.Ref(),
			SubnetId:     subnet.Ref(),
		})
	}

	return refs
}
