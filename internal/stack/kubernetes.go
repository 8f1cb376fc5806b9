package stack

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lex00/wetwire-eks-go/internal/manifest"
	"github.com/lex00/wetwire-eks-go/resources/k8s"
)

// AddManifest declares a group of Kubernetes objects that is applied to the
// cluster as one unit, after every unit named in dependsOn.
func (s *Stack) AddManifest(id string, objs []*unstructured.Unstructured, dependsOn ...string) error {
	return s.addManifest(id, objs, false, dependsOn...)
}

func (s *Stack) addManifest(id string, objs []*unstructured.Unstructured, overwrite bool, dependsOn ...string) error {
	if s.err != nil {
		return s.err
	}
	if s.cluster == nil {
		s.fail(fmt.Errorf("manifest %s declared before the cluster", id))
		return s.err
	}
	if len(objs) == 0 {
		s.fail(fmt.Errorf("manifest %s has no objects", id))
		return s.err
	}

	body, err := manifest.Encode(objs)
	if err != nil {
		s.fail(fmt.Errorf("encoding manifest %s: %w", id, err))
		return s.err
	}
	value, err := s.resolveTokens(body)
	if err != nil {
		s.fail(fmt.Errorf("manifest %s: %w", id, err))
		return s.err
	}

	s.Add(id, k8s.Manifest{
		ServiceToken: s.cluster.ServiceToken,
		ClusterName:  s.cluster.Cluster.Ref(),
		RoleArn:      s.cluster.AdminRole.Attr("Arn"),
		Manifest:     value,
		Overwrite:    overwrite,
	}, dependsOn...)
	return s.err
}

// helmRelease describes a chart installed through the kubectl provider.
type helmRelease struct {
	Release    string
	Chart      string
	Version    string
	Repository string
	Namespace  string
	Values     string
}

func (s *Stack) addHelmChart(id string, release helmRelease, dependsOn ...string) error {
	if s.err != nil {
		return s.err
	}
	if s.cluster == nil {
		s.fail(fmt.Errorf("helm chart %s declared before the cluster", id))
		return s.err
	}

	var values any
	if release.Values != "" {
		resolved, err := s.resolveTokens(release.Values)
		if err != nil {
			s.fail(fmt.Errorf("helm chart %s: %w", id, err))
			return s.err
		}
		values = resolved
	}

	s.Add(id, k8s.HelmChart{
		ServiceToken: s.cluster.ServiceToken,
		ClusterName:  s.cluster.Cluster.Ref(),
		RoleArn:      s.cluster.AdminRole.Attr("Arn"),
		Release:      release.Release,
		Chart:        release.Chart,
		Version:      release.Version,
		Repository:   release.Repository,
		Namespace:    release.Namespace,
		Values:       values,
		Wait:         true,
	}, dependsOn...)
	return s.err
}
