package envconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PreservesOrder(t *testing.T) {
	envs, err := Parse([]byte(`
staging:
  replicaCount: 2
dev: {}
prod:
  appVersion: "1.4.0"
  featureFlag: true
`))
	require.NoError(t, err)
	require.Len(t, envs, 3)

	assert.Equal(t, []string{"staging", "dev", "prod"}, Names(envs))
	assert.Equal(t, 2, envs[0].Config.ReplicaCount)
	assert.Equal(t, Config{}, envs[1].Config)
	assert.Equal(t, "1.4.0", envs[2].Config.AppVersion)
	assert.True(t, envs[2].Config.FeatureFlag)
}

func TestParse_JSON(t *testing.T) {
	envs, err := Parse([]byte(`{"qa": {"requestCpu": "50m"}, "dev": null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"qa", "dev"}, Names(envs))
	assert.Equal(t, "50m", envs[0].Config.RequestCPU)
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "  \n", "null", "{}"} {
		envs, err := Parse([]byte(input))
		require.NoError(t, err, "input %q", input)
		assert.Empty(t, envs, "input %q", input)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a mapping", `["dev"]`},
		{"wrong type", `dev: {replicaCount: "two"}`},
		{"negative replicas", `dev: {replicaCount: -1}`},
		{"unknown field", `dev: {replicas: 2}`},
		{"invalid name", `Dev_1: {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestFromContextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "app": "wetwire-eks synth",
  "context": {
    "envconfigs": {
      "prod": {"replicaCount": 3},
      "dev": {}
    }
  }
}`), 0o644))

	envs, err := FromContextFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod", "dev"}, Names(envs))
	assert.Equal(t, 3, envs[0].Config.ReplicaCount)
}

func TestFromContextFile_NoEnvconfigs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app": "x", "context": {}}`), 0o644))

	envs, err := FromContextFile(path)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestFromContextFile_Missing(t *testing.T) {
	_, err := FromContextFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseOverride(t *testing.T) {
	envs, err := ParseOverride(`envconfigs={"dev":{"appVersion":"0.9.0"}}`)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "0.9.0", envs[0].Config.AppVersion)

	_, err = ParseOverride("envconfigs")
	assert.ErrorContains(t, err, "expected key=value")

	_, err = ParseOverride("other={}")
	assert.ErrorContains(t, err, "unknown key")
}
