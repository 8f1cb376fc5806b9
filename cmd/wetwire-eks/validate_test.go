package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-eks-go"
)

func TestNewValidateCmd(t *testing.T) {
	cmd := newValidateCmd(&globalOptions{})

	if cmd.Use != "validate [template]" {
		t.Errorf("Use = %q, want 'validate [template]'", cmd.Use)
	}
	for _, flag := range []string{"format", "context-file", "manifests", "policy"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestOutputValidateResult(t *testing.T) {
	tests := []struct {
		name     string
		result   wetwire.ValidateResult
		wantText []string
		wantErr  bool
	}{
		{
			name:     "passed",
			result:   wetwire.ValidateResult{Success: true, Resources: 42},
			wantText: []string{"Validation passed: 42 resources OK"},
		},
		{
			name: "passed with warnings",
			result: wetwire.ValidateResult{
				Success:   true,
				Resources: 3,
				Warnings:  []string{"W3005: obsolete DependsOn"},
			},
			wantText: []string{"WARNING: W3005: obsolete DependsOn"},
		},
		{
			name: "failed",
			result: wetwire.ValidateResult{
				Errors: []string{"AppManifestsDev: manifest object 0 has no kind"},
			},
			wantText: []string{"Validation FAILED:", "ERROR: AppManifestsDev: manifest object 0 has no kind"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := outputValidateResult(&out, tt.result, "text")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errValidationFailed))
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantText {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
		})
	}
}

func TestOutputValidateResult_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, outputValidateResult(&out, wetwire.ValidateResult{Success: true, Resources: 1}, "json"))
	assert.JSONEq(t, `{"success":true,"resources":1}`, out.String())

	assert.Error(t, outputValidateResult(&out, wetwire.ValidateResult{}, "xml"))
}
