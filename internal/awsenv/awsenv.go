// Package awsenv checks the live AWS account against the deployment target
// of the synthesized stack.
//
// The stack itself is pure data; nothing in it talks to AWS. This package
// is used by the CLI before a deploy to confirm that the active credentials
// belong to the expected account and to report the state of an already
// deployed cluster.
package awsenv

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

// IdentityAPI is the subset of the STS client used here.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ClusterAPI is the subset of the EKS client used here.
type ClusterAPI interface {
	DescribeCluster(ctx context.Context, in *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

// Clients bundles the AWS clients for one region.
type Clients struct {
	Region   string
	Identity IdentityAPI
	Cluster  ClusterAPI
}

// Load builds clients from the default credential chain.
func Load(ctx context.Context, region string) (*Clients, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Clients{
		Region:   region,
		Identity: sts.NewFromConfig(cfg),
		Cluster:  eks.NewFromConfig(cfg),
	}, nil
}

// ErrAccountMismatch is returned when the credentials belong to a different
// account than the stack targets.
var ErrAccountMismatch = errors.New("account mismatch")

// Identity describes the caller.
type Identity struct {
	Account string
	Arn     string
	UserID  string
}

// VerifyAccount returns the caller identity and fails with
// ErrAccountMismatch unless it belongs to want.
func VerifyAccount(ctx context.Context, api IdentityAPI, want string) (*Identity, error) {
	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("getting caller identity: %w", describeAPIError(err))
	}
	id := &Identity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}
	if id.Account != want {
		return id, fmt.Errorf("%w: credentials are for %s, stack targets %s", ErrAccountMismatch, id.Account, want)
	}
	return id, nil
}

// ClusterState is the normalized lifecycle state of a cluster.
type ClusterState string

const (
	StateNotDeployed ClusterState = "not-deployed"
	StateCreating    ClusterState = "creating"
	StateActive      ClusterState = "active"
	StateUpdating    ClusterState = "updating"
	StateDeleting    ClusterState = "deleting"
	StateFailed      ClusterState = "failed"
	StateUnknown     ClusterState = "unknown"
)

// ClusterInfo is what DescribeCluster reports about a deployed cluster.
type ClusterInfo struct {
	Name     string
	Arn      string
	Version  string
	Endpoint string
	Issuer   string
	State    ClusterState
}

// DescribeCluster reports the state of the named cluster. A cluster that
// does not exist yet is reported as StateNotDeployed, not as an error.
func DescribeCluster(ctx context.Context, api ClusterAPI, name string) (*ClusterInfo, error) {
	out, err := api.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return &ClusterInfo{Name: name, State: StateNotDeployed}, nil
		}
		return nil, fmt.Errorf("describing cluster %s: %w", name, describeAPIError(err))
	}
	if out.Cluster == nil {
		return nil, fmt.Errorf("describing cluster %s: empty response", name)
	}

	c := out.Cluster
	info := &ClusterInfo{
		Name:     aws.ToString(c.Name),
		Arn:      aws.ToString(c.Arn),
		Version:  aws.ToString(c.Version),
		Endpoint: aws.ToString(c.Endpoint),
		State:    convertStatus(c.Status),
	}
	if c.Identity != nil && c.Identity.Oidc != nil {
		info.Issuer = aws.ToString(c.Identity.Oidc.Issuer)
	}
	return info, nil
}

func convertStatus(status types.ClusterStatus) ClusterState {
	switch status {
	case types.ClusterStatusCreating:
		return StateCreating
	case types.ClusterStatusActive:
		return StateActive
	case types.ClusterStatusUpdating:
		return StateUpdating
	case types.ClusterStatusDeleting:
		return StateDeleting
	case types.ClusterStatusFailed:
		return StateFailed
	default:
		return StateUnknown
	}
}

// CheckVersion fails when the deployed control plane runs a different
// Kubernetes minor version than want. Patch levels are ignored.
func CheckVersion(info *ClusterInfo, want string) error {
	if info.State == StateNotDeployed {
		return nil
	}
	have, err := semver.NewVersion(info.Version)
	if err != nil {
		return fmt.Errorf("cluster %s reports version %q: %w", info.Name, info.Version, err)
	}
	expected, err := semver.NewVersion(want)
	if err != nil {
		return fmt.Errorf("invalid Kubernetes version %q: %w", want, err)
	}
	if have.Major() != expected.Major() || have.Minor() != expected.Minor() {
		return fmt.Errorf("cluster %s runs Kubernetes %d.%d, stack declares %d.%d",
			info.Name, have.Major(), have.Minor(), expected.Major(), expected.Minor())
	}
	return nil
}

// describeAPIError flattens service errors to "Code: message".
func describeAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}
