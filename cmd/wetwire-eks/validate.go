package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/differ"
	"github.com/lex00/wetwire-eks-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd(g *globalOptions) *cobra.Command {
	var (
		flags        synthFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "validate [template]",
		Short: "Lint the synthesized template",
		Long: `Validate synthesizes the stack, or loads the given template file, and
checks it.

Checks performed:
  - cfn-lint rules against the CloudFormation resource specification
  - Kubernetes manifest resources carry apiVersion, kind and metadata.name
  - Helm chart resources name a chart, release and repository

Examples:
    wetwire-eks validate
    wetwire-eks validate template.json
    wetwire-eks validate --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tmpl *wetwire.Template
				err  error
			)
			if len(args) == 1 {
				tmpl, err = differ.LoadTemplate(args[0])
			} else {
				tmpl, err = synthTemplate(cmd, &flags, g)
			}
			if err != nil {
				return err
			}

			result, err := validation.Validate(tmpl)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return outputValidateResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func synthTemplate(cmd *cobra.Command, flags *synthFlags, g *globalOptions) (*wetwire.Template, error) {
	s, err := flags.synthesize(cmd, g.log())
	if err != nil {
		return nil, err
	}
	return s.Template()
}

var errValidationFailed = errors.New("validation failed")

func outputValidateResult(w io.Writer, result wetwire.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}
