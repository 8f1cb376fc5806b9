package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-eks-go/internal/awsenv"
	"github.com/lex00/wetwire-eks-go/internal/stack"
)

type stubIdentity struct{ account string }

func (s stubIdentity) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(s.account),
		Arn:     aws.String("arn:aws:iam::" + s.account + ":role/deployer"),
	}, nil
}

type stubCluster struct {
	cluster *types.Cluster
}

func (s stubCluster) DescribeCluster(context.Context, *eks.DescribeClusterInput, ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	if s.cluster == nil {
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &eks.DescribeClusterOutput{Cluster: s.cluster}, nil
}

func verifyDefaults() verifyOptions {
	return verifyOptions{account: stack.Account, region: stack.Region, cluster: stack.ClusterName}
}

func TestRunVerify(t *testing.T) {
	clients := &awsenv.Clients{
		Identity: stubIdentity{account: stack.Account},
		Cluster: stubCluster{cluster: &types.Cluster{
			Name:    aws.String(stack.ClusterName),
			Version: aws.String(stack.KubernetesVersion),
			Status:  types.ClusterStatusActive,
		}},
	}

	var out bytes.Buffer
	require.NoError(t, runVerify(context.Background(), &out, clients, verifyDefaults(), zap.NewNop()))
	assert.Contains(t, out.String(), "Account 975050071559 OK")
	assert.Contains(t, out.String(), "Cluster EksCluster: active, Kubernetes 1.28")
}

func TestRunVerify_NotDeployed(t *testing.T) {
	clients := &awsenv.Clients{Identity: stubIdentity{account: stack.Account}, Cluster: stubCluster{}}

	var out bytes.Buffer
	require.NoError(t, runVerify(context.Background(), &out, clients, verifyDefaults(), zap.NewNop()))
	assert.Contains(t, out.String(), "Cluster EksCluster: not deployed in us-east-1")
}

func TestRunVerify_WrongAccount(t *testing.T) {
	clients := &awsenv.Clients{Identity: stubIdentity{account: "123456789012"}, Cluster: stubCluster{}}

	var out bytes.Buffer
	err := runVerify(context.Background(), &out, clients, verifyDefaults(), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, awsenv.ErrAccountMismatch))
	assert.Empty(t, out.String())
}

func TestRunVerify_VersionDrift(t *testing.T) {
	clients := &awsenv.Clients{
		Identity: stubIdentity{account: stack.Account},
		Cluster: stubCluster{cluster: &types.Cluster{
			Name:    aws.String(stack.ClusterName),
			Version: aws.String("1.27"),
			Status:  types.ClusterStatusActive,
		}},
	}

	err := runVerify(context.Background(), &bytes.Buffer{}, clients, verifyDefaults(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs Kubernetes 1.27")
}

func TestRunVerify_SkipCluster(t *testing.T) {
	clients := &awsenv.Clients{Identity: stubIdentity{account: stack.Account}}
	opts := verifyDefaults()
	opts.skipCluster = true

	var out bytes.Buffer
	require.NoError(t, runVerify(context.Background(), &out, clients, opts, zap.NewNop()))
	assert.NotContains(t, out.String(), "Cluster")
}
