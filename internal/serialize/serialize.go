// Package serialize converts typed resource structs into CloudFormation
// property maps and finds the logical IDs those properties reference.
package serialize

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/lex00/wetwire-eks-go/intrinsics"
)

// Properties serializes a resource struct to CloudFormation properties.
// It handles:
// - json tag names (falling back to the Go field name)
// - omitting nil/zero values
// - nested property structs
// - values implementing json.Marshaler (intrinsics, AttrRef, principals)
func Properties(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		fieldVal := val.Field(i)
		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, err
		}
		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		if v.Kind() == reflect.Interface {
			return serializeValue(v.Elem())
		}
	}

	if v.CanInterface() {
		if marshaler, ok := v.Interface().(json.Marshaler); ok {
			return roundTrip(marshaler)
		}
	}

	switch v.Kind() {
	case reflect.Ptr:
		return serializeValue(v.Elem())

	case reflect.Struct:
		return Properties(v.Interface())

	case reflect.Slice:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[iter.Key().String()] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		return roundTrip(v.Interface())
	}
}

func roundTrip(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// References returns the sorted logical IDs referenced by serialized
// properties through Ref, Fn::GetAtt and Fn::Sub. Pseudo-parameters and
// Fn::Sub variables bound by a local variable map are not references.
func References(props any) []string {
	seen := make(map[string]bool)
	collectRefs(props, seen)

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

func collectRefs(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if collectIntrinsic(val, seen) {
				return
			}
		}
		for _, child := range val {
			collectRefs(child, seen)
		}
	case []any:
		for _, child := range val {
			collectRefs(child, seen)
		}
	}
}

// collectIntrinsic handles a single-key intrinsic map and reports whether it
// recognised one.
func collectIntrinsic(m map[string]any, seen map[string]bool) bool {
	if ref, ok := m["Ref"].(string); ok {
		if !strings.HasPrefix(ref, "AWS::") {
			seen[ref] = true
		}
		return true
	}

	if getAtt, ok := m["Fn::GetAtt"]; ok {
		switch args := getAtt.(type) {
		case []any:
			if len(args) > 0 {
				if name, ok := args[0].(string); ok {
					seen[name] = true
				}
			}
		case string:
			name, _, _ := strings.Cut(args, ".")
			seen[name] = true
		}
		return true
	}

	if sub, ok := m["Fn::Sub"]; ok {
		switch args := sub.(type) {
		case string:
			for _, name := range intrinsics.SubVariables(args) {
				seen[name] = true
			}
		case []any:
			var bound map[string]any
			if len(args) > 1 {
				bound, _ = args[1].(map[string]any)
				for _, expr := range bound {
					collectRefs(expr, seen)
				}
			}
			if len(args) > 0 {
				if s, ok := args[0].(string); ok {
					for _, name := range intrinsics.SubVariables(s) {
						if _, isLocal := bound[name]; !isLocal {
							seen[name] = true
						}
					}
				}
			}
		}
		return true
	}

	return false
}
