package manifest

import (
	"slices"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// KindNamespace is the kind that must be applied before everything else.
const KindNamespace = "Namespace"

// IsNamespace reports whether obj is a Namespace.
func IsNamespace(obj *unstructured.Unstructured) bool {
	return obj.GetKind() == KindNamespace
}

// Classify partitions objs into namespaces and everything else. Both groups
// keep their input order.
func Classify(objs []*unstructured.Unstructured) (namespaces, others []*unstructured.Unstructured) {
	for _, obj := range objs {
		if IsNamespace(obj) {
			namespaces = append(namespaces, obj)
		} else {
			others = append(others, obj)
		}
	}
	return namespaces, others
}

// SortNamespacesFirst returns a copy of objs with namespaces moved to the
// front. The sort is stable: relative order within each group is kept.
func SortNamespacesFirst(objs []*unstructured.Unstructured) []*unstructured.Unstructured {
	sorted := slices.Clone(objs)
	slices.SortStableFunc(sorted, func(a, b *unstructured.Unstructured) int {
		return rank(a) - rank(b)
	})
	return sorted
}

func rank(obj *unstructured.Unstructured) int {
	if IsNamespace(obj) {
		return 0
	}
	return 1
}
