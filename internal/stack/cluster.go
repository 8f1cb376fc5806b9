package stack

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/lex00/wetwire-eks-go/intrinsics"
	"github.com/lex00/wetwire-eks-go/resources/eks"
	"github.com/lex00/wetwire-eks-go/resources/iam"
)

// Fixed cluster parameters.
const (
	ClusterName       = "EksCluster"
	KubernetesVersion = "1.28"
	NodeInstanceType  = "t3.medium"
	NodeDesiredSize   = 2
	NodeSSHKeyName    = "demo"
)

// eksRootCAThumbprint is the thumbprint of the root CA that signs every EKS
// OIDC issuer endpoint.
const eksRootCAThumbprint = "9e99a48a9960b14926bb7f3b02e22da2b0ab7280"

var nodeManagedPolicies = []string{
	"AmazonEKSWorkerNodePolicy",
	"AmazonEKS_CNI_Policy",
	"AmazonEC2ContainerRegistryReadOnly",
	"AmazonSSMManagedInstanceCore",
}

type clusterRefs struct {
	Cluster      Node
	AdminRole    Node
	NodeRole     Node
	NodeGroup    Node
	OidcProvider Node
	// ServiceToken is the kubectl provider that applies Kubernetes objects.
	ServiceToken intrinsics.Ref
}

func managedPolicies(names ...string) []any {
	arns := make([]any, len(names))
	for i, name := range names {
		arns[i] = intrinsics.ManagedPolicyArn(name)
	}
	return arns
}

// declareCluster declares the control plane, its node group and the identity
// plumbing around them. It must run before any manifest is added.
func declareCluster(s *Stack, net networkRefs, serviceToken intrinsics.Ref) (*clusterRefs, error) {
	subnets := make([]any, len(net.PrivateSubnets))
	for i, subnet := range net.PrivateSubnets {
		subnets[i] = subnet.Ref()
	}

	admin := s.Add("ClusterAdminRole", iam.Role{
		Description:              "Kubernetes masters role for " + ClusterName,
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.AssumeRoleStatement(intrinsics.AccountRootPrincipal)),
	})
	clusterRole := s.Add("ClusterRole", iam.Role{
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.AssumeRoleStatement(intrinsics.ServicePrincipal{"eks.amazonaws.com"}),
		),
		ManagedPolicyArns: managedPolicies("AmazonEKSClusterPolicy"),
	})

	// Capacity comes only from the managed node group below.
	cluster := s.Add("EksCluster", eks.Cluster{
		Name:    ClusterName,
		Version: KubernetesVersion,
		RoleArn: clusterRole.Attr("Arn"),
		ResourcesVpcConfig: &eks.Cluster_ResourcesVpcConfig{
			SubnetIds:             subnets,
			EndpointPublicAccess:  true,
			EndpointPrivateAccess: true,
		},
		AccessConfig: &eks.Cluster_AccessConfig{
			AuthenticationMode:                      "API_AND_CONFIG_MAP",
			BootstrapClusterCreatorAdminPermissions: true,
		},
	})

	nodeRole := s.Add("NodeRole", iam.Role{
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.AssumeRoleStatement(intrinsics.ServicePrincipal{"ec2.amazonaws.com"}),
		),
		ManagedPolicyArns: managedPolicies(nodeManagedPolicies...),
	})
	nodeGroup := s.Add("NodeGroup", eks.Nodegroup{
		ClusterName:   cluster.Ref(),
		NodeRole:      nodeRole.Attr("Arn"),
		Subnets:       subnets,
		InstanceTypes: []string{NodeInstanceType},
		AmiType:       "AL2_x86_64",
		ScalingConfig: &eks.Nodegroup_ScalingConfig{
			DesiredSize: NodeDesiredSize,
			MinSize:     1,
			MaxSize:     NodeDesiredSize,
		},
		RemoteAccess: &eks.Nodegroup_RemoteAccess{Ec2SshKey: NodeSSHKeyName},
	})

	oidc := s.Add("OidcProvider", iam.OIDCProvider{
		Url:            cluster.Attr("OpenIdConnectIssuerUrl"),
		ClientIdList:   []string{"sts.amazonaws.com"},
		ThumbprintList: []string{eksRootCAThumbprint},
	})

	refs := &clusterRefs{
		Cluster:      cluster,
		AdminRole:    admin,
		NodeRole:     nodeRole,
		NodeGroup:    nodeGroup,
		OidcProvider: oidc,
		ServiceToken: serviceToken,
	}
	if s.err != nil {
		return nil, s.err
	}
	s.cluster = refs

	awsAuth, err := awsAuthConfigMap(s, refs)
	if err != nil {
		return nil, err
	}
	if err := s.addManifest("AwsAuthManifest", awsAuth, true, nodeGroup.ID); err != nil {
		return nil, err
	}
	return refs, nil
}

type roleMapping struct {
	RoleArn  string   `json:"rolearn"`
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// awsAuthConfigMap maps the node role and the admin role into Kubernetes RBAC.
func awsAuthConfigMap(s *Stack, c *clusterRefs) ([]*unstructured.Unstructured, error) {
	mapRoles, err := yaml.Marshal([]roleMapping{
		{
			RoleArn:  s.Token(c.NodeRole.Attr("Arn")),
			Username: "system:node:{{EC2PrivateDNSName}}",
			Groups:   []string{"system:bootstrappers", "system:nodes", "system:masters"},
		},
		{
			RoleArn:  s.Token(c.AdminRole.Attr("Arn")),
			Username: s.Token(c.AdminRole.Attr("Arn")),
			Groups:   []string{"system:masters"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding aws-auth role mappings: %w", err)
	}

	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]any{
			"name":      "aws-auth",
			"namespace": "kube-system",
		},
		"data": map[string]any{
			"mapRoles": string(mapRoles),
		},
	}}
	return []*unstructured.Unstructured{obj}, nil
}
