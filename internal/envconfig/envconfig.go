// Package envconfig reads the per-environment configuration that drives the
// application manifest templates.
package envconfig

import (
	"fmt"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/lex00/wetwire-eks-go/internal/placeholder"
)

// Defaults applied to missing or zero-valued fields.
const (
	DefaultAppVersion   = "1.0.0"
	DefaultReplicaCount = 1
	DefaultRequestCPU   = "100m"
	DefaultLimitCPU     = "200m"
)

// Placeholder tokens understood by the application manifests.
const (
	TokenEnv          = "{{ENV}}"
	TokenAppVersion   = "{{APP_VERSION}}"
	TokenReplicaCount = "{{REPLICA_COUNT}}"
	TokenRequestCPU   = "{{REQUEST_CPU}}"
	TokenLimitCPU     = "{{LIMIT_CPU}}"
	TokenFeatureFlag  = "{{FEATURE_FLAG}}"
	TokenLogGroupName = "{{LOG_GROUP_NAME}}"
)

// Config holds the settings of one environment. Zero values mean "not set".
type Config struct {
	AppVersion   string `yaml:"appVersion" json:"appVersion,omitempty"`
	ReplicaCount int    `yaml:"replicaCount" json:"replicaCount,omitempty"`
	RequestCPU   string `yaml:"requestCpu" json:"requestCpu,omitempty"`
	LimitCPU     string `yaml:"limitCpu" json:"limitCpu,omitempty"`
	FeatureFlag  bool   `yaml:"featureFlag" json:"featureFlag,omitempty"`
}

// WithDefaults returns c with every unset field replaced by its default.
// A replica count of zero counts as unset.
func (c Config) WithDefaults() Config {
	if c.AppVersion == "" {
		c.AppVersion = DefaultAppVersion
	}
	if c.ReplicaCount == 0 {
		c.ReplicaCount = DefaultReplicaCount
	}
	if c.RequestCPU == "" {
		c.RequestCPU = DefaultRequestCPU
	}
	if c.LimitCPU == "" {
		c.LimitCPU = DefaultLimitCPU
	}
	return c
}

// Environment is a named Config. Environments are always handled as an
// ordered slice; declaration order is preserved from the input.
type Environment struct {
	Name   string
	Config Config
}

// Placeholders returns the token map for the environment with defaults applied.
func (e Environment) Placeholders() placeholder.Map {
	c := e.Config.WithDefaults()
	return placeholder.NewMap(
		TokenEnv, e.Name,
		TokenAppVersion, c.AppVersion,
		TokenReplicaCount, strconv.Itoa(c.ReplicaCount),
		TokenRequestCPU, c.RequestCPU,
		TokenLimitCPU, c.LimitCPU,
		TokenFeatureFlag, strconv.FormatBool(c.FeatureFlag),
	)
}

// LogGroupName returns the CloudWatch log group of the environment's application.
func (e Environment) LogGroupName() string {
	return fmt.Sprintf("/eks/%s/app-logs", e.Name)
}

// Validate checks the environment name and the effective settings.
func (e Environment) Validate() error {
	if errs := validation.IsDNS1123Label(e.Name); len(errs) > 0 {
		return fmt.Errorf("environment %q: invalid name: %s", e.Name, errs[0])
	}

	c := e.Config.WithDefaults()
	if _, err := semver.NewVersion(c.AppVersion); err != nil {
		return fmt.Errorf("environment %q: appVersion %q: %w", e.Name, c.AppVersion, err)
	}

	request, err := resource.ParseQuantity(c.RequestCPU)
	if err != nil {
		return fmt.Errorf("environment %q: requestCpu %q: %w", e.Name, c.RequestCPU, err)
	}
	limit, err := resource.ParseQuantity(c.LimitCPU)
	if err != nil {
		return fmt.Errorf("environment %q: limitCpu %q: %w", e.Name, c.LimitCPU, err)
	}
	if request.Cmp(limit) > 0 {
		return fmt.Errorf("environment %q: requestCpu %s exceeds limitCpu %s", e.Name, c.RequestCPU, c.LimitCPU)
	}
	return nil
}

// Names returns the environment names in order.
func Names(envs []Environment) []string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Name
	}
	return names
}
