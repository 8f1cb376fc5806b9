// Package placeholder substitutes {{TOKEN}} placeholders in manifest text.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

// Map is an ordered token to value mapping. Tokens keep their insertion
// order; setting an existing token replaces its value in place.
type Map struct {
	tokens []string
	values map[string]string
}

// NewMap creates a Map from alternating token, value pairs.
func NewMap(pairs ...string) Map {
	if len(pairs)%2 != 0 {
		panic("placeholder.NewMap: odd number of arguments")
	}
	var m Map
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set adds or replaces a token.
func (m *Map) Set(token, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, exists := m.values[token]; !exists {
		m.tokens = append(m.tokens, token)
	}
	m.values[token] = value
}

// Get returns the value of token.
func (m Map) Get(token string) (string, bool) {
	v, ok := m.values[token]
	return v, ok
}

// Tokens returns the tokens in insertion order.
func (m Map) Tokens() []string {
	return append([]string(nil), m.tokens...)
}

// Len returns the number of tokens.
func (m Map) Len() int {
	return len(m.tokens)
}

// ToMap returns the mapping as a plain map.
func (m Map) ToMap() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Replace substitutes every literal occurrence of every token, applying the
// tokens in insertion order. Tokens not present are ignored; text without
// tokens is returned unchanged.
func Replace(content string, m Map) string {
	for _, token := range m.tokens {
		content = strings.ReplaceAll(content, token, m.values[token])
	}
	return content
}

// placeholderPattern is the {{NAME}} delimiter grammar.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Render substitutes {{NAME}} placeholders in a single pass. Map tokens are
// the full delimited form ("{{ENV}}"). Substituted values are never
// rescanned. Any placeholder without a value is reported in an
// *UnresolvedError.
func Render(content string, m Map) (string, error) {
	var missing []string
	seen := make(map[string]bool)

	out := placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		if v, ok := m.values[match]; ok {
			return v
		}
		if !seen[match] {
			seen[match] = true
			missing = append(missing, match)
		}
		return match
	})

	if len(missing) > 0 {
		return "", &UnresolvedError{Placeholders: missing}
	}
	return out, nil
}

// Find returns the distinct placeholders in content, in order of first appearance.
func Find(content string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllString(content, -1) {
		if !seen[match] {
			seen[match] = true
			found = append(found, match)
		}
	}
	return found
}

// UnresolvedError reports placeholders left without a value.
type UnresolvedError struct {
	Placeholders []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved placeholders: %s", strings.Join(e.Placeholders, ", "))
}
