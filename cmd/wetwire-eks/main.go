// Command wetwire-eks synthesizes the EKS cluster stack as a CloudFormation
// template.
//
// Usage:
//
//	wetwire-eks synth                    Generate the template
//	wetwire-eks list                     List resources in apply order
//	wetwire-eks graph -f mermaid         Dependency graph
//	wetwire-eks validate                 Lint the synthesized template
//	wetwire-eks verify-account           Check credentials against the target account
//	wetwire-eks version                  Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-eks-go/internal/logging"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel string
	logJSON  bool
	logFile  string

	logger  *zap.Logger
	cleanup func()
}

// log returns the configured logger, or a no-op logger before setup.
func (g *globalOptions) log() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wetwire-eks",
		Short: "Synthesize an EKS cluster stack as CloudFormation",
		Long: `wetwire-eks declares a VPC, an EKS cluster with a managed node group,
metrics-server, Fluent Bit log shipping and per-environment workloads, and
synthesizes them into one CloudFormation template.

Workloads are rendered from the YAML templates in the manifests directory,
once per environment in the envconfigs context:

    wetwire-eks synth --context-file cdk.json --manifests ./manifests`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, cleanup, err := logging.New(logging.Options{
				Level:  g.logLevel,
				JSON:   g.logJSON,
				File:   g.logFile,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			g.logger, g.cleanup = logger, cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.cleanup != nil {
				g.cleanup()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (default: $LOG_LEVEL, then warn)")
	rootCmd.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Also write logs to this rotating file")

	rootCmd.AddCommand(
		newSynthCmd(g),
		newListCmd(g),
		newGraphCmd(g),
		newDiffCmd(),
		newValidateCmd(g),
		newWatchCmd(g),
		newVerifyAccountCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-eks %s\n", getVersion())
		},
	}
}
