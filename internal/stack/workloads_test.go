package stack

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/envconfig"
	"github.com/lex00/wetwire-eks-go/internal/manifest"
	"github.com/lex00/wetwire-eks-go/internal/placeholder"
)

type registration struct {
	id        string
	kinds     []string
	dependsOn []string
}

// recordingRegistry captures registrations instead of declaring resources.
type recordingRegistry struct {
	registered []registration
	objects    map[string][]*unstructured.Unstructured
	failOn     string
}

func (r *recordingRegistry) AddManifest(id string, objs []*unstructured.Unstructured, dependsOn ...string) error {
	if id == r.failOn {
		return errors.New("registry rejected " + id)
	}
	if r.objects == nil {
		r.objects = make(map[string][]*unstructured.Unstructured)
	}
	var kinds []string
	for _, obj := range objs {
		kinds = append(kinds, obj.GetKind())
	}
	r.registered = append(r.registered, registration{id: id, kinds: kinds, dependsOn: dependsOn})
	r.objects[id] = objs
	return nil
}

func environments(names ...string) []envconfig.Environment {
	envs := make([]envconfig.Environment, len(names))
	for i, name := range names {
		envs[i] = envconfig.Environment{Name: name}
	}
	return envs
}

func TestDeclareWorkloads_PerEnvironment(t *testing.T) {
	reg := &recordingRegistry{}
	result, err := DeclareWorkloads(reg, testManifests(), environments("staging", "dev"), WorkloadOptions{
		Files:        testFiles,
		LogGroupName: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []registration{
		{id: "NamespaceManifestStaging", kinds: []string{"Namespace"}},
		{id: "AppManifestsStaging", kinds: []string{"ConfigMap", "Deployment"}, dependsOn: []string{"NamespaceManifestStaging"}},
		{id: "NamespaceManifestDev", kinds: []string{"Namespace"}},
		{id: "AppManifestsDev", kinds: []string{"ConfigMap", "Deployment"}, dependsOn: []string{"NamespaceManifestDev"}},
	}, reg.registered)

	assert.Equal(t, []wetwire.DependencyEdge{
		{From: "AppManifestsStaging", To: "NamespaceManifestStaging"},
		{From: "AppManifestsDev", To: "NamespaceManifestDev"},
	}, result.Edges)
	require.Len(t, result.Units, 4)

	assert.Equal(t, "app-staging", reg.objects["NamespaceManifestStaging"][0].GetName())
	settings := reg.objects["AppManifestsDev"][0]
	assert.Equal(t, "app-dev", settings.GetNamespace())
	data, _, _ := unstructured.NestedStringMap(settings.Object, "data")
	assert.Equal(t, "1.0.0", data["APP_VERSION"])
	assert.Equal(t, "/eks/dev/app-logs", data["LOG_GROUP_NAME"])

	replicas, _, _ := unstructured.NestedInt64(reg.objects["AppManifestsDev"][1].Object, "spec", "replicas")
	assert.Equal(t, int64(1), replicas)
}

func TestDeclareWorkloads_ExplicitConfig(t *testing.T) {
	reg := &recordingRegistry{}
	envs := []envconfig.Environment{{
		Name:   "prod",
		Config: envconfig.Config{AppVersion: "2.3.4", ReplicaCount: 3},
	}}
	_, err := DeclareWorkloads(reg, testManifests(), envs, WorkloadOptions{Files: testFiles, LogGroupName: true})
	require.NoError(t, err)

	objs := reg.objects["AppManifestsProd"]
	data, _, _ := unstructured.NestedStringMap(objs[0].Object, "data")
	assert.Equal(t, "2.3.4", data["APP_VERSION"])
	replicas, _, _ := unstructured.NestedInt64(objs[1].Object, "spec", "replicas")
	assert.Equal(t, int64(3), replicas)
}

func TestDeclareWorkloads_Merged(t *testing.T) {
	reg := &recordingRegistry{}
	result, err := DeclareWorkloads(reg, testManifests(), environments("dev", "prod"), WorkloadOptions{
		Policy:       Merged,
		Files:        testFiles,
		LogGroupName: true,
	})
	require.NoError(t, err)

	require.Len(t, reg.registered, 1)
	assert.Equal(t, "AppManifests", reg.registered[0].id)
	assert.Equal(t, []string{"Namespace", "Namespace", "ConfigMap", "Deployment", "ConfigMap", "Deployment"}, reg.registered[0].kinds)
	assert.Empty(t, result.Edges)

	objs := reg.objects["AppManifests"]
	assert.Equal(t, "app-dev", objs[0].GetName())
	assert.Equal(t, "app-prod", objs[1].GetName())
	assert.Equal(t, "app-dev", objs[2].GetNamespace())
	assert.Equal(t, "app-prod", objs[4].GetNamespace())
}

func TestDeclareWorkloads_SkipsEmptyGroups(t *testing.T) {
	fsys := fstest.MapFS{
		"only-namespace.yaml": {Data: []byte("apiVersion: v1\nkind: Namespace\nmetadata:\n  name: ns-{{ENV}}\n")},
		"only-app.yaml":       {Data: []byte("apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cm-{{ENV}}\n")},
		"empty.yaml":          {Data: []byte("---\n")},
	}

	tests := []struct {
		name  string
		files []string
		want  []registration
	}{
		{
			name:  "namespaces only",
			files: []string{"only-namespace.yaml"},
			want:  []registration{{id: "NamespaceManifestDev", kinds: []string{"Namespace"}}},
		},
		{
			name:  "no namespace",
			files: []string{"only-app.yaml"},
			want:  []registration{{id: "AppManifestsDev", kinds: []string{"ConfigMap"}}},
		},
		{
			name:  "nothing",
			files: []string{"empty.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &recordingRegistry{}
			result, err := DeclareWorkloads(reg, fsys, environments("dev"), WorkloadOptions{Files: tt.files})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.registered)
			assert.Empty(t, result.Edges)
		})
	}
}

func TestDeclareWorkloads_NoEnvironments(t *testing.T) {
	reg := &recordingRegistry{}
	result, err := DeclareWorkloads(reg, testManifests(), nil, WorkloadOptions{Files: testFiles})
	require.NoError(t, err)
	assert.Empty(t, reg.registered)
	assert.Empty(t, result.Units)
}

func TestDeclareWorkloads_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := DeclareWorkloads(&recordingRegistry{}, testManifests(), environments("dev"), WorkloadOptions{
			Files: []string{"namespace.yaml", "job.yaml"},
		})
		require.Error(t, err)
		assert.True(t, manifest.IsFileError(err))
		assert.Contains(t, err.Error(), "job.yaml")
	})

	t.Run("unresolved placeholder", func(t *testing.T) {
		// LOG_GROUP_NAME is only provided when enabled.
		_, err := DeclareWorkloads(&recordingRegistry{}, testManifests(), environments("dev"), WorkloadOptions{
			Files: testFiles,
		})
		require.Error(t, err)
		var unresolved *placeholder.UnresolvedError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, []string{"{{LOG_GROUP_NAME}}"}, unresolved.Placeholders)
		assert.Contains(t, err.Error(), "environment dev")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		fsys := fstest.MapFS{"bad.yaml": {Data: []byte("kind: [unclosed\n")}}
		_, err := DeclareWorkloads(&recordingRegistry{}, fsys, environments("dev"), WorkloadOptions{Files: []string{"bad.yaml"}})
		require.Error(t, err)
		assert.True(t, manifest.IsParseError(err))
	})

	t.Run("environment suffix collision", func(t *testing.T) {
		reg := &recordingRegistry{}
		_, err := DeclareWorkloads(reg, testManifests(), environments("dev-1", "dev1"), WorkloadOptions{
			Files:        testFiles,
			LogGroupName: true,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"dev-1"`)
		assert.Contains(t, err.Error(), `"dev1"`)
		assert.Contains(t, err.Error(), `"Dev1"`)
		assert.Empty(t, reg.registered)
	})

	t.Run("registry failure aborts", func(t *testing.T) {
		reg := &recordingRegistry{failOn: "AppManifestsDev"}
		_, err := DeclareWorkloads(reg, testManifests(), environments("dev", "prod"), WorkloadOptions{
			Files:        testFiles,
			LogGroupName: true,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registry rejected AppManifestsDev")
		assert.Len(t, reg.registered, 1)
	})
}

func TestDeclareWorkloads_MergedAllowsSuffixCollision(t *testing.T) {
	reg := &recordingRegistry{}
	_, err := DeclareWorkloads(reg, testManifests(), environments("dev-1", "dev1"), WorkloadOptions{
		Policy:       Merged,
		Files:        testFiles,
		LogGroupName: true,
	})
	require.NoError(t, err)
	require.Len(t, reg.registered, 1)
	assert.Equal(t, "AppManifests", reg.registered[0].id)
}

func TestDeclareWorkloads_LogsPlaceholdersPerFile(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := DeclareWorkloads(&recordingRegistry{}, testManifests(), environments("dev"), WorkloadOptions{
		Files:        testFiles,
		LogGroupName: true,
		Logger:       zap.New(core),
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("rendering manifest").FilterField(zap.String("file", "deployment.yaml")).All()
	require.Len(t, entries, 1)
	assert.Equal(t,
		[]any{"{{ENV}}", "{{APP_VERSION}}", "{{LOG_GROUP_NAME}}", "{{REPLICA_COUNT}}"},
		entries[0].ContextMap()["placeholders"],
	)
}

func TestParseRegistrationPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    RegistrationPolicy
		wantErr bool
	}{
		{"", PerEnvironment, false},
		{"per-environment", PerEnvironment, false},
		{"merged", Merged, false},
		{"global", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegistrationPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogicalSuffix(t *testing.T) {
	tests := map[string]string{
		"dev":       "Dev",
		"qa-east":   "QaEast",
		"prod2":     "Prod2",
		"eu-west-1": "EuWest1",
	}
	for in, want := range tests {
		if got := LogicalSuffix(in); got != want {
			t.Errorf("LogicalSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}
