package stack

import (
	"errors"
	"io/fs"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/envconfig"
)

// Deployment target.
const (
	StackName = "EksClusterStack"
	Account   = "975050071559"
	Region    = "us-east-1"
)

// KubectlServiceTokenParameter names the template parameter that carries the
// kubectl provider's service token.
const KubectlServiceTokenParameter = "KubectlProviderServiceToken"

// Options configures Synthesize.
type Options struct {
	// Manifests holds the application templates at its root and the
	// Fluent Bit files under fluent-bit/.
	Manifests    fs.FS
	Environments []envconfig.Environment
	Policy       RegistrationPolicy
	FluentBit    FluentBitOptions
	LogGroupName bool
	Logger       *zap.Logger
}

// DefaultOptions returns the options used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		Policy: PerEnvironment,
		FluentBit: FluentBitOptions{
			Delivery:    DeliveryManifests,
			PolicyScope: PolicyLogGroup,
		},
		LogGroupName: true,
	}
}

func outputOf(description string, value any) wetwire.Output {
	return wetwire.Output{Description: description, Value: value}
}

// Synthesize declares the whole cluster stack: network, cluster, node group,
// aws-auth, metrics-server, Fluent Bit and the per-environment workloads.
func Synthesize(opts Options) (*Stack, *WorkloadResult, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Manifests == nil {
		return nil, nil, errors.New("no manifest directory")
	}
	for _, env := range opts.Environments {
		if err := env.Validate(); err != nil {
			return nil, nil, err
		}
	}

	s := New(StackName, WithLogger(log))
	s.SetDescription("EKS cluster with Fluent Bit logging and per-environment workloads")
	s.SetMetadata("Environment", map[string]any{
		"Account": Account,
		"Region":  Region,
	})
	if len(opts.Environments) > 0 {
		s.SetMetadata("Environments", envconfig.Names(opts.Environments))
	}
	serviceToken := s.AddParameter(KubectlServiceTokenParameter, wetwire.Parameter{
		Type:        "String",
		Description: "Service token of the kubectl provider that applies manifests and Helm charts",
	})

	net := declareNetwork(s)
	cluster, err := declareCluster(s, net, serviceToken)
	if err != nil {
		return nil, nil, err
	}
	if err := declareMetricsServer(s, cluster); err != nil {
		return nil, nil, err
	}
	if err := declareFluentBit(s, cluster, opts.Manifests, opts.FluentBit); err != nil {
		return nil, nil, err
	}

	workloads, err := DeclareWorkloads(s, opts.Manifests, opts.Environments, WorkloadOptions{
		Policy:       opts.Policy,
		LogGroupName: opts.LogGroupName,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, err
	}

	s.AddOutput("ClusterName", outputOf("EKS cluster name", cluster.Cluster.Ref()))
	s.AddOutput("ClusterArn", outputOf("EKS cluster ARN", cluster.Cluster.Attr("Arn")))
	s.AddOutput("VpcId", outputOf("Cluster VPC", net.Vpc.Ref()))
	s.AddOutput("OidcProviderArn", outputOf("IRSA OIDC provider", cluster.OidcProvider.Ref()))
	s.AddOutput("AdminRoleArn", outputOf("Role mapped to system:masters", cluster.AdminRole.Attr("Arn")))

	if err := s.Err(); err != nil {
		return nil, nil, err
	}
	log.Info("declared stack",
		zap.String("stack", s.Name()),
		zap.Int("resources", len(s.decls)),
		zap.Int("units", len(workloads.Units)),
	)
	return s, workloads, nil
}
