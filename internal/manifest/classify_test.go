package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func object(kind, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{}}
	obj.SetKind(kind)
	obj.SetName(name)
	return obj
}

func names(objs []*unstructured.Unstructured) []string {
	var out []string
	for _, obj := range objs {
		out = append(out, obj.GetKind()+"/"+obj.GetName())
	}
	return out
}

func TestClassify(t *testing.T) {
	objs := []*unstructured.Unstructured{
		object("Deployment", "app"),
		object("Namespace", "dev"),
		object("Service", "app"),
		object("Namespace", "staging"),
	}

	namespaces, others := Classify(objs)
	assert.Equal(t, []string{"Namespace/dev", "Namespace/staging"}, names(namespaces))
	assert.Equal(t, []string{"Deployment/app", "Service/app"}, names(others))
}

func TestClassify_Empty(t *testing.T) {
	namespaces, others := Classify(nil)
	assert.Empty(t, namespaces)
	assert.Empty(t, others)
}

func TestClassify_KindIsCaseSensitive(t *testing.T) {
	namespaces, others := Classify([]*unstructured.Unstructured{object("namespace", "x")})
	assert.Empty(t, namespaces)
	assert.Len(t, others, 1)
}

func TestSortNamespacesFirst(t *testing.T) {
	objs := []*unstructured.Unstructured{
		object("Deployment", "a"),
		object("Namespace", "dev"),
		object("Job", "b"),
		object("HorizontalPodAutoscaler", "c"),
		object("Namespace", "prod"),
	}

	sorted := SortNamespacesFirst(objs)
	assert.Equal(t, []string{
		"Namespace/dev", "Namespace/prod",
		"Deployment/a", "Job/b", "HorizontalPodAutoscaler/c",
	}, names(sorted))
	// input untouched
	assert.Equal(t, "Deployment/a", names(objs)[0])
}
