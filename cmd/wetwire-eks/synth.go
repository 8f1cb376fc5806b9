package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/envconfig"
	"github.com/lex00/wetwire-eks-go/internal/stack"
	"github.com/lex00/wetwire-eks-go/internal/template"
)

// synthFlags are the inputs shared by every command that synthesizes the stack.
type synthFlags struct {
	contextFile   string
	contexts      []string
	manifestsDir  string
	policy        string
	delivery      string
	logPolicy     string
	chartVersion  string
	noLogGroupEnv bool
}

func (f *synthFlags) register(cmd *cobra.Command) {
	defaults := stack.DefaultOptions()

	cmd.Flags().StringVar(&f.contextFile, "context-file", "cdk.json", "Context file holding context.envconfigs")
	cmd.Flags().StringArrayVarP(&f.contexts, "context", "c", nil, "Context override, e.g. envconfigs='{\"dev\":{\"appVersion\":\"1.0.0\"}}'")
	cmd.Flags().StringVarP(&f.manifestsDir, "manifests", "m", "manifests", "Directory holding the workload templates and fluent-bit/")
	cmd.Flags().StringVar(&f.policy, "policy", string(defaults.Policy), "Workload registration: per-environment or merged")
	cmd.Flags().StringVar(&f.delivery, "fluent-bit-delivery", defaults.FluentBit.Delivery, "Fluent Bit delivery: manifests or helm")
	cmd.Flags().StringVar(&f.logPolicy, "log-policy", defaults.FluentBit.PolicyScope, "Fluent Bit log policy: wildcard or log-group")
	cmd.Flags().StringVar(&f.chartVersion, "chart-version", "", "aws-for-fluent-bit chart version (default: latest)")
	cmd.Flags().BoolVar(&f.noLogGroupEnv, "no-log-group-name", false, "Do not provide {{LOG_GROUP_NAME}} to the templates")
}

// environments resolves envconfigs. The last --context override wins over
// the context file. A missing default context file means no environments.
func (f *synthFlags) environments(contextFileSet bool) ([]envconfig.Environment, error) {
	if len(f.contexts) > 0 {
		return envconfig.ParseOverride(f.contexts[len(f.contexts)-1])
	}
	if f.contextFile == "" {
		return nil, nil
	}
	if _, err := os.Stat(f.contextFile); errors.Is(err, fs.ErrNotExist) && !contextFileSet {
		return nil, nil
	}
	return envconfig.FromContextFile(f.contextFile)
}

// options converts the flags to synthesis options.
func (f *synthFlags) options(cmd *cobra.Command, log *zap.Logger) (stack.Options, error) {
	opts := stack.DefaultOptions()

	envs, err := f.environments(cmd.Flags().Changed("context-file"))
	if err != nil {
		return opts, err
	}
	policy, err := stack.ParseRegistrationPolicy(f.policy)
	if err != nil {
		return opts, err
	}

	info, err := os.Stat(f.manifestsDir)
	if err != nil {
		return opts, fmt.Errorf("manifest directory: %w", err)
	}
	if !info.IsDir() {
		return opts, fmt.Errorf("manifest directory: %s is not a directory", f.manifestsDir)
	}

	opts.Manifests = os.DirFS(f.manifestsDir)
	opts.Environments = envs
	opts.Policy = policy
	opts.FluentBit = stack.FluentBitOptions{
		Delivery:     f.delivery,
		PolicyScope:  f.logPolicy,
		ChartVersion: f.chartVersion,
	}
	opts.LogGroupName = !f.noLogGroupEnv
	opts.Logger = log
	return opts, opts.FluentBit.Validate()
}

// synthesize declares the stack from the command's flags.
func (f *synthFlags) synthesize(cmd *cobra.Command, log *zap.Logger) (*stack.Stack, error) {
	opts, err := f.options(cmd, log)
	if err != nil {
		return nil, err
	}
	s, _, err := stack.Synthesize(opts)
	return s, err
}

func newSynthCmd(g *globalOptions) *cobra.Command {
	var (
		flags        synthFlags
		outputFormat string
		outputFile   string
		resultJSON   bool
	)

	cmd := &cobra.Command{
		Use:     "synth",
		Aliases: []string{"build"},
		Short:   "Synthesize the CloudFormation template",
		Long: `Synth declares the cluster stack and writes the CloudFormation template.

Environments come from context.envconfigs in the context file, or from a
--context override given on the command line.

Examples:
    wetwire-eks synth
    wetwire-eks synth -o template.json
    wetwire-eks synth --format yaml --policy merged
    wetwire-eks synth --fluent-bit-delivery helm --log-policy wildcard
    wetwire-eks synth -c 'envconfigs={"qa":{"appVersion":"2.0.0"}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.synthesize(cmd, g.log())
			if err != nil {
				if resultJSON {
					return writeBuildResult(cmd.OutOrStdout(), wetwire.BuildResult{Errors: []string{err.Error()}})
				}
				return err
			}
			tmpl, err := s.Template()
			if err != nil {
				return err
			}
			if resultJSON {
				return writeBuildResult(cmd.OutOrStdout(), buildResult(tmpl))
			}
			return writeTemplate(cmd.OutOrStdout(), tmpl, outputFormat, outputFile)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&resultJSON, "result", false, "Print a JSON build result instead of the bare template")

	return cmd
}

func buildResult(tmpl *wetwire.Template) wetwire.BuildResult {
	names := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	result := wetwire.BuildResult{
		Success:   true,
		Template:  *tmpl,
		Resources: names,
	}
	if envs, ok := tmpl.Metadata["Environments"].([]string); ok {
		result.Environments = envs
	}
	return result
}

func writeBuildResult(w io.Writer, result wetwire.BuildResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	if !result.Success {
		return errors.New("synth failed")
	}
	return nil
}

// writeTemplate renders tmpl as json or yaml to outputFile, or to w when
// outputFile is empty.
func writeTemplate(w io.Writer, tmpl *wetwire.Template, format, outputFile string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = template.ToJSON(tmpl)
	case "yaml":
		data, err = template.ToYAML(tmpl)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Fprintln(w, string(data))
		return nil
	}
	return os.WriteFile(outputFile, data, 0644)
}
