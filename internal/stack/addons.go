package stack

import (
	"fmt"

	"github.com/lex00/wetwire-eks-go/internal/helmvalues"
)

const (
	metricsServerRepository = "https://kubernetes-sigs.github.io/metrics-server/"
	metricsServerNamespace  = "kube-system"
)

// metricsServerArgs let metrics-server reach kubelets whose serving
// certificates are not signed by the cluster CA.
var metricsServerArgs = []any{
	"--kubelet-insecure-tls",
	"--kubelet-preferred-address-types=InternalIP,Hostname,ExternalIP",
}

func declareMetricsServer(s *Stack, c *clusterRefs) error {
	values, err := helmvalues.Encode(map[string]any{"args": metricsServerArgs})
	if err != nil {
		return fmt.Errorf("encoding metrics-server values: %w", err)
	}
	return s.addHelmChart("MetricsServer", helmRelease{
		Release:    "metrics-server",
		Chart:      "metrics-server",
		Repository: metricsServerRepository,
		Namespace:  metricsServerNamespace,
		Values:     values,
	}, c.NodeGroup.ID)
}
