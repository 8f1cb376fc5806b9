package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-eks-go/internal/awsenv"
	"github.com/lex00/wetwire-eks-go/internal/stack"
)

type verifyOptions struct {
	account     string
	region      string
	cluster     string
	skipCluster bool
}

func newVerifyAccountCmd(g *globalOptions) *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify-account",
		Short: "Check AWS credentials against the stack's target account",
		Long: `Verify-account asks STS who the active credentials belong to and fails
unless that is the account the stack deploys into. It then reports the
state of the cluster, if one is already deployed, and checks that its
Kubernetes version matches the declared one.

Credentials come from the default AWS chain (environment, shared config,
SSO, instance role).

Examples:
    wetwire-eks verify-account
    wetwire-eks verify-account --skip-cluster
    AWS_PROFILE=prod wetwire-eks verify-account`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := awsenv.Load(cmd.Context(), opts.region)
			if err != nil {
				return err
			}
			return runVerify(cmd.Context(), cmd.OutOrStdout(), clients, opts, g.log())
		},
	}

	cmd.Flags().StringVar(&opts.account, "account", stack.Account, "Expected AWS account ID")
	cmd.Flags().StringVar(&opts.region, "region", stack.Region, "AWS region")
	cmd.Flags().StringVar(&opts.cluster, "cluster", stack.ClusterName, "EKS cluster name")
	cmd.Flags().BoolVar(&opts.skipCluster, "skip-cluster", false, "Only check the account")

	return cmd
}

func runVerify(ctx context.Context, w io.Writer, clients *awsenv.Clients, opts verifyOptions, log *zap.Logger) error {
	id, err := awsenv.VerifyAccount(ctx, clients.Identity, opts.account)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Account %s OK (%s)\n", id.Account, id.Arn)
	log.Debug("verified caller identity", zap.String("arn", id.Arn), zap.String("region", opts.region))

	if opts.skipCluster {
		return nil
	}

	info, err := awsenv.DescribeCluster(ctx, clients.Cluster, opts.cluster)
	if err != nil {
		return err
	}
	if info.State == awsenv.StateNotDeployed {
		fmt.Fprintf(w, "Cluster %s: not deployed in %s\n", opts.cluster, opts.region)
		return nil
	}
	fmt.Fprintf(w, "Cluster %s: %s, Kubernetes %s\n", info.Name, info.State, info.Version)
	if info.Issuer != "" {
		fmt.Fprintf(w, "  OIDC issuer: %s\n", info.Issuer)
	}
	return awsenv.CheckVersion(info, stack.KubernetesVersion)
}
