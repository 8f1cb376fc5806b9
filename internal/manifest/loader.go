// Package manifest loads multi-document Kubernetes YAML and classifies the
// resulting objects.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// Load reads name from fsys and parses every YAML document in it.
// The file is read on every call.
func Load(fsys fs.FS, name string) ([]*unstructured.Unstructured, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, &FileError{Path: name, Err: err}
	}
	return Parse(name, data)
}

// Parse splits data into YAML documents and converts each one into an
// unstructured object, preserving document order. Empty and null documents
// are skipped. source is only used in error messages.
func Parse(source string, data []byte) ([]*unstructured.Unstructured, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))

	var objs []*unstructured.Unstructured
	for index := 1; ; index++ {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Source: source, Document: index, Err: err}
		}

		obj, err := decodeDocument(doc)
		if err != nil {
			return nil, &ParseError{Source: source, Document: index, Err: err}
		}
		if obj != nil {
			objs = append(objs, obj)
		}
	}
	return objs, nil
}

func decodeDocument(doc []byte) (*unstructured.Unstructured, error) {
	raw, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var value any
	if err := utiljson.Unmarshal(raw, &value); err != nil {
		return nil, err
	}

	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is a %T, not a mapping", value)
	}
	if len(object) == 0 {
		return nil, nil
	}
	return &unstructured.Unstructured{Object: object}, nil
}

// Encode renders objects as a JSON array, the form the kubectl provider
// expects in a Manifest property.
func Encode(objs []*unstructured.Unstructured) (string, error) {
	list := make([]map[string]any, 0, len(objs))
	for _, obj := range objs {
		list = append(list, obj.Object)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
