package stack

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lex00/wetwire-eks-go/intrinsics"
	"github.com/lex00/wetwire-eks-go/internal/helmvalues"
	"github.com/lex00/wetwire-eks-go/internal/manifest"
	"github.com/lex00/wetwire-eks-go/internal/placeholder"
	"github.com/lex00/wetwire-eks-go/resources/iam"
)

// Fluent Bit delivery modes.
const (
	// DeliveryManifests applies the static fluent-bit manifests.
	DeliveryManifests = "manifests"
	// DeliveryHelm installs the aws-for-fluent-bit chart.
	DeliveryHelm = "helm"
)

// Log policy scopes for the Fluent Bit role.
const (
	// PolicyWildcard grants the log actions on every resource.
	PolicyWildcard = "wildcard"
	// PolicyLogGroup grants the log actions on /eks/* log groups only.
	PolicyLogGroup = "log-group"
)

const (
	FluentBitNamespace      = "amazon-cloudwatch"
	FluentBitServiceAccount = "fluent-bit"
	FluentBitDir            = "fluent-bit"

	fluentBitChart      = "aws-for-fluent-bit"
	fluentBitRepository = "https://aws.github.io/eks-charts"

	// RoleArnPlaceholder is replaced by the Fluent Bit role ARN in service-account.yaml.
	RoleArnPlaceholder = "<IRSA_ROLE_ARN_PLACEHOLDER>"
	roleArnAnnotation  = "eks.amazonaws.com/role-arn"
)

var fluentBitLogActions = []string{
	"logs:PutLogEvents",
	"logs:CreateLogStream",
	"logs:CreateLogGroup",
	"logs:DescribeLogStreams",
}

// FluentBitOptions selects how the logging agent is installed.
type FluentBitOptions struct {
	Delivery     string
	PolicyScope  string
	ChartVersion string
}

// Validate rejects unknown delivery modes and policy scopes.
func (o FluentBitOptions) Validate() error {
	switch o.Delivery {
	case DeliveryManifests, DeliveryHelm:
	default:
		return fmt.Errorf("unknown fluent bit delivery %q (want %s or %s)", o.Delivery, DeliveryManifests, DeliveryHelm)
	}
	switch o.PolicyScope {
	case PolicyWildcard, PolicyLogGroup:
	default:
		return fmt.Errorf("unknown log policy %q (want %s or %s)", o.PolicyScope, PolicyWildcard, PolicyLogGroup)
	}
	return nil
}

// logPolicyResources returns the Resource element of the log statement.
func logPolicyResources(scope string) any {
	if scope == PolicyWildcard {
		return "*"
	}
	return []any{logGroupArn("/eks/*"), logGroupArn("/eks/*:*")}
}

func logGroupArn(pattern string) intrinsics.Join {
	return intrinsics.Join{Delimiter: "", Values: []any{
		"arn:", intrinsics.AWS_PARTITION,
		":logs:", intrinsics.AWS_REGION,
		":", intrinsics.AWS_ACCOUNT_ID,
		":log-group:" + pattern,
	}}
}

// irsaTrustPolicy returns a trust policy that lets exactly one service
// account assume the role through the cluster's OIDC provider.
//
// Condition keys embed the issuer host, which is only known at deploy time,
// so the whole document is an Fn::Sub string.
func irsaTrustPolicy(c *clusterRefs, namespace, serviceAccount string) (intrinsics.SubWithMap, error) {
	doc := intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
		Effect:    "Allow",
		Principal: map[string]any{"Federated": "${" + c.OidcProvider.ID + "}"},
		Action:    "sts:AssumeRoleWithWebIdentity",
		Condition: intrinsics.Json{
			intrinsics.StringEquals: map[string]any{
				"${Issuer}:sub": fmt.Sprintf("system:serviceaccount:%s:%s", namespace, serviceAccount),
				"${Issuer}:aud": "sts.amazonaws.com",
			},
		},
	})
	data, err := json.Marshal(doc)
	if err != nil {
		return intrinsics.SubWithMap{}, err
	}
	return intrinsics.SubWithMap{
		String: string(data),
		Variables: map[string]any{
			"Issuer": intrinsics.Select{
				Index: 1,
				List: intrinsics.Split{
					Delimiter: "//",
					Source:    c.Cluster.Attr("OpenIdConnectIssuerUrl"),
				},
			},
		},
	}, nil
}

// declareFluentBit declares the amazon-cloudwatch namespace, the IRSA role
// and the agent itself. Everything after the namespace depends on it.
func declareFluentBit(s *Stack, c *clusterRefs, fsys fs.FS, opts FluentBitOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	ns, err := manifest.Load(fsys, path.Join(FluentBitDir, "namespace-cloudwatch.yaml"))
	if err != nil {
		return err
	}
	if err := s.AddManifest("FluentBitNamespace", ns); err != nil {
		return err
	}

	trust, err := irsaTrustPolicy(c, FluentBitNamespace, FluentBitServiceAccount)
	if err != nil {
		return fmt.Errorf("encoding fluent bit trust policy: %w", err)
	}
	role := s.Add("FluentBitRole", iam.Role{
		Description:              "CloudWatch Logs access for the fluent-bit service account",
		AssumeRolePolicyDocument: trust,
		Policies: []iam.Role_Policy{{
			PolicyName: "FluentBitLogs",
			PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
				Effect:   "Allow",
				Action:   fluentBitLogActions,
				Resource: logPolicyResources(opts.PolicyScope),
			}),
		}},
	})
	if s.err != nil {
		return s.err
	}
	s.AddOutput("FluentBitRoleArn", outputOf("IRSA role assumed by fluent-bit", role.Attr("Arn")))

	switch opts.Delivery {
	case DeliveryHelm:
		return declareFluentBitChart(s, fsys, role, opts)
	default:
		return declareFluentBitManifests(s, fsys, role)
	}
}

func declareFluentBitManifests(s *Stack, fsys fs.FS, role Node) error {
	name := path.Join(FluentBitDir, "service-account.yaml")
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return &manifest.FileError{Path: name, Err: err}
	}
	rendered := placeholder.Replace(string(content), placeholder.NewMap(RoleArnPlaceholder, s.Token(role.Attr("Arn"))))
	sa, err := manifest.Parse(name, []byte(rendered))
	if err != nil {
		return err
	}
	if err := s.AddManifest("FluentBitServiceAccount", sa, "FluentBitNamespace"); err != nil {
		return err
	}

	var objs []*unstructured.Unstructured
	for _, file := range []string{"configmap.yaml", "daemon-set.yaml"} {
		loaded, err := manifest.Load(fsys, path.Join(FluentBitDir, file))
		if err != nil {
			return err
		}
		objs = append(objs, loaded...)
	}
	return s.AddManifest("FluentBitResources", objs, "FluentBitNamespace", "FluentBitServiceAccount")
}

func declareFluentBitChart(s *Stack, fsys fs.FS, role Node, opts FluentBitOptions) error {
	base, err := helmvalues.Load(fsys, path.Join(FluentBitDir, "values.yaml"), helmvalues.Data{
		ClusterName:    ClusterName,
		Region:         Region,
		Namespace:      FluentBitNamespace,
		ServiceAccount: FluentBitServiceAccount,
		LogGroupPrefix: "/eks/" + ClusterName,
	})
	if err != nil {
		return err
	}
	values, err := helmvalues.Merge(base, map[string]any{
		"serviceAccount": map[string]any{
			"create": true,
			"name":   FluentBitServiceAccount,
			"annotations": map[string]any{
				roleArnAnnotation: s.Token(role.Attr("Arn")),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("merging fluent bit values: %w", err)
	}
	encoded, err := helmvalues.Encode(values)
	if err != nil {
		return fmt.Errorf("encoding fluent bit values: %w", err)
	}
	return s.addHelmChart("FluentBitChart", helmRelease{
		Release:    fluentBitChart,
		Chart:      fluentBitChart,
		Version:    opts.ChartVersion,
		Repository: fluentBitRepository,
		Namespace:  FluentBitNamespace,
		Values:     encoded,
	}, "FluentBitNamespace")
}
