package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/differ"
)

const (
	sampleContext   = "../../cdk.json"
	sampleManifests = "../../manifests"
)

func sampleArgs(cmd string, extra ...string) []string {
	args := []string{cmd, "--context-file", sampleContext, "--manifests", sampleManifests}
	return append(args, extra...)
}

func TestSynthCmd_WritesTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "template.json")

	_, err := execute(t, sampleArgs("synth", "-o", out)...)
	require.NoError(t, err)

	tmpl, err := differ.LoadTemplate(out)
	require.NoError(t, err)
	for _, name := range []string{
		"Vpc", "EksCluster", "NodeGroup", "AwsAuthManifest", "MetricsServer",
		"FluentBitRole", "FluentBitServiceAccount",
		"NamespaceManifestDev", "AppManifestsDev",
		"NamespaceManifestStaging", "AppManifestsStaging",
		"NamespaceManifestProd", "AppManifestsProd",
	} {
		assert.Contains(t, tmpl.Resources, name)
	}
	assert.Equal(t, []string{"NamespaceManifestProd"}, tmpl.Resources["AppManifestsProd"].DependsOn)
}

func TestSynthCmd_YAMLToStdout(t *testing.T) {
	out, err := execute(t, sampleArgs("synth", "--format", "yaml", "--policy", "merged")...)
	require.NoError(t, err)

	tmpl, err := differ.ParseTemplate([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, tmpl.Resources, "AppManifests")
	assert.NotContains(t, tmpl.Resources, "AppManifestsDev")
}

func TestSynthCmd_ContextOverride(t *testing.T) {
	out, err := execute(t, sampleArgs("synth", "--result",
		"-c", `envconfigs={"qa-east":{"appVersion":"2.0.0","replicaCount":4}}`)...)
	require.NoError(t, err)

	var result wetwire.BuildResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, []string{"qa-east"}, result.Environments)
	assert.Contains(t, result.Resources, "AppManifestsQaEast")
	assert.NotContains(t, result.Resources, "AppManifestsDev")
}

func TestSynthCmd_HelmDelivery(t *testing.T) {
	out, err := execute(t, sampleArgs("synth", "--fluent-bit-delivery", "helm", "--log-policy", "wildcard")...)
	require.NoError(t, err)

	tmpl, err := differ.ParseTemplate([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, tmpl.Resources, "FluentBitChart")
	assert.NotContains(t, tmpl.Resources, "FluentBitServiceAccount")
}

func TestSynthCmd_MissingDefaultContextFile(t *testing.T) {
	manifests, err := filepath.Abs(sampleManifests)
	require.NoError(t, err)
	t.Chdir(t.TempDir())

	out, err := execute(t, "synth", "--manifests", manifests, "--result")
	require.NoError(t, err)

	var result wetwire.BuildResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Environments)
	assert.NotContains(t, result.Resources, "AppManifests")
	assert.Contains(t, result.Resources, "EksCluster")
}

func TestSynthCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown format",
			args:    sampleArgs("synth", "--format", "toml"),
			wantErr: "unknown format: toml",
		},
		{
			name:    "unknown policy",
			args:    sampleArgs("synth", "--policy", "sideways"),
			wantErr: `unknown registration policy "sideways"`,
		},
		{
			name:    "unknown delivery",
			args:    sampleArgs("synth", "--fluent-bit-delivery", "carrier-pigeon"),
			wantErr: `unknown fluent bit delivery "carrier-pigeon"`,
		},
		{
			name:    "missing manifests",
			args:    []string{"synth", "--context-file", sampleContext, "--manifests", "does-not-exist"},
			wantErr: "manifest directory",
		},
		{
			name:    "explicit context file missing",
			args:    sampleArgs("synth", "--context-file", "does-not-exist.json"),
			wantErr: "reading context file",
		},
		{
			name:    "bad override key",
			args:    sampleArgs("synth", "-c", `settings={}`),
			wantErr: `unknown key "settings"`,
		},
		{
			name:    "invalid environment",
			args:    sampleArgs("synth", "-c", `envconfigs={"dev":{"appVersion":"one"}}`),
			wantErr: "appVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSynthCmd_ResultOnFailure(t *testing.T) {
	out, err := execute(t, sampleArgs("synth", "--result", "--policy", "sideways")...)
	require.Error(t, err)

	var result wetwire.BuildResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "sideways")
}
