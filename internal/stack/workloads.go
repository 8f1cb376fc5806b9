package stack

import (
	"fmt"
	"io/fs"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/internal/envconfig"
	"github.com/lex00/wetwire-eks-go/internal/manifest"
	"github.com/lex00/wetwire-eks-go/internal/placeholder"
)

// AppManifestFiles are the application templates, in load order.
var AppManifestFiles = []string{
	"namespace.yaml",
	"rolebinding.yaml",
	"configMap-secret.yaml",
	"deployment.yaml",
	"HPA.yaml",
	"job.yaml",
}

// RegistrationPolicy selects how environment workloads are grouped into
// declaration units.
type RegistrationPolicy string

const (
	// PerEnvironment registers a namespace unit and an application unit for
	// every environment, the application unit depending on the namespace unit.
	PerEnvironment RegistrationPolicy = "per-environment"
	// Merged registers a single unit holding every environment's objects,
	// namespaces first.
	Merged RegistrationPolicy = "merged"
)

// ParseRegistrationPolicy parses a policy name.
func ParseRegistrationPolicy(s string) (RegistrationPolicy, error) {
	switch p := RegistrationPolicy(s); p {
	case PerEnvironment, Merged:
		return p, nil
	case "":
		return PerEnvironment, nil
	default:
		return "", fmt.Errorf("unknown registration policy %q (want %s or %s)", s, PerEnvironment, Merged)
	}
}

// ManifestRegistry accepts named groups of Kubernetes objects together with
// the units they must be applied after.
type ManifestRegistry interface {
	AddManifest(id string, objs []*unstructured.Unstructured, dependsOn ...string) error
}

// WorkloadOptions configures DeclareWorkloads.
type WorkloadOptions struct {
	Policy RegistrationPolicy
	// Files overrides AppManifestFiles.
	Files []string
	// LogGroupName adds the {{LOG_GROUP_NAME}} token.
	LogGroupName bool
	Logger       *zap.Logger
}

// Unit is a registered group of objects.
type Unit struct {
	ID      string
	Objects []*unstructured.Unstructured
}

// WorkloadResult lists what DeclareWorkloads registered.
type WorkloadResult struct {
	Units []Unit
	Edges []wetwire.DependencyEdge
}

// DeclareWorkloads renders the application templates for every environment
// and registers the resulting objects with reg. Environments are processed
// in slice order. Any read, render or parse failure aborts the declaration.
func DeclareWorkloads(reg ManifestRegistry, fsys fs.FS, envs []envconfig.Environment, opts WorkloadOptions) (*WorkloadResult, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	files := opts.Files
	if files == nil {
		files = AppManifestFiles
	}
	policy := opts.Policy
	if policy == "" {
		policy = PerEnvironment
	}

	if policy == PerEnvironment {
		if err := checkSuffixes(envs); err != nil {
			return nil, err
		}
	}

	result := &WorkloadResult{}
	register := func(id string, objs []*unstructured.Unstructured, dependsOn ...string) error {
		if err := reg.AddManifest(id, objs, dependsOn...); err != nil {
			return err
		}
		result.Units = append(result.Units, Unit{ID: id, Objects: objs})
		for _, dep := range dependsOn {
			result.Edges = append(result.Edges, wetwire.DependencyEdge{From: id, To: dep})
		}
		return nil
	}

	var merged []*unstructured.Unstructured
	for _, env := range envs {
		objs, err := renderEnvironment(fsys, env, files, opts.LogGroupName, log)
		if err != nil {
			return nil, err
		}
		log.Info("rendered environment",
			zap.String("env", env.Name),
			zap.Int("objects", len(objs)),
		)

		if policy == Merged {
			merged = append(merged, objs...)
			continue
		}

		namespaces, others := manifest.Classify(objs)
		suffix := LogicalSuffix(env.Name)
		nsID := "NamespaceManifest" + suffix
		appID := "AppManifests" + suffix

		if len(namespaces) > 0 {
			if err := register(nsID, namespaces); err != nil {
				return nil, err
			}
		}
		if len(others) > 0 {
			var deps []string
			if len(namespaces) > 0 {
				deps = append(deps, nsID)
			}
			if err := register(appID, others, deps...); err != nil {
				return nil, err
			}
		}
	}

	if policy == Merged && len(merged) > 0 {
		if err := register("AppManifests", manifest.SortNamespacesFirst(merged)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// renderEnvironment substitutes the environment's tokens into every file and
// parses the results, keeping file and document order.
func renderEnvironment(fsys fs.FS, env envconfig.Environment, files []string, logGroupName bool, log *zap.Logger) ([]*unstructured.Unstructured, error) {
	tokens := env.Placeholders()
	if logGroupName {
		tokens.Set(envconfig.TokenLogGroupName, env.LogGroupName())
	}

	var objs []*unstructured.Unstructured
	for _, name := range files {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &manifest.FileError{Path: name, Err: err}
		}
		log.Debug("rendering manifest",
			zap.String("env", env.Name),
			zap.String("file", name),
			zap.Strings("placeholders", placeholder.Find(string(content))),
		)
		rendered, err := placeholder.Render(string(content), tokens)
		if err != nil {
			return nil, fmt.Errorf("rendering %s for environment %s: %w", name, env.Name, err)
		}
		parsed, err := manifest.Parse(name, []byte(rendered))
		if err != nil {
			return nil, err
		}
		objs = append(objs, parsed...)
	}
	return objs, nil
}

// checkSuffixes rejects environments whose names map to the same logical
// ID fragment, such as "dev-1" and "dev1".
func checkSuffixes(envs []envconfig.Environment) error {
	owners := make(map[string]string, len(envs))
	for _, env := range envs {
		suffix := LogicalSuffix(env.Name)
		if prev, ok := owners[suffix]; ok {
			return fmt.Errorf("environments %q and %q both map to logical ID suffix %q", prev, env.Name, suffix)
		}
		owners[suffix] = env.Name
	}
	return nil
}

// LogicalSuffix turns an environment name into a logical ID fragment:
// "dev" becomes "Dev" and "qa-east" becomes "QaEast".
func LogicalSuffix(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
