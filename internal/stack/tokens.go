package stack

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/lex00/wetwire-eks-go/intrinsics"
)

// tokenPattern matches the text form of a late-bound value.
var tokenPattern = regexp.MustCompile(`__TOKEN_(\d+)__`)

type tokenRegistry struct {
	values []any
}

// Token returns a string stand-in for a value that is only known at deploy
// time, such as a role ARN. The string may be embedded in manifest or Helm
// values text; it is turned back into the intrinsic when the text is
// attached to a resource.
func (s *Stack) Token(value any) string {
	s.tokens.values = append(s.tokens.values, value)
	return fmt.Sprintf("__TOKEN_%d__", len(s.tokens.values)-1)
}

// resolveTokens returns text unchanged when it has no tokens. Otherwise it
// returns an Fn::Sub whose literal "${" sequences are escaped and whose
// tokens are bound to Token0..TokenN in order of first appearance.
func (s *Stack) resolveTokens(text string) (any, error) {
	if !tokenPattern.MatchString(text) {
		return text, nil
	}

	vars := make(map[string]any)
	names := make(map[int]string)
	var resolveErr error

	out := tokenPattern.ReplaceAllStringFunc(intrinsics.EscapeSub(text), func(match string) string {
		idx, err := strconv.Atoi(tokenPattern.FindStringSubmatch(match)[1])
		if err != nil || idx >= len(s.tokens.values) {
			resolveErr = fmt.Errorf("unknown token %s", match)
			return match
		}
		name, ok := names[idx]
		if !ok {
			name = fmt.Sprintf("Token%d", len(names))
			names[idx] = name
			vars[name] = s.tokens.values[idx]
		}
		return "${" + name + "}"
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return intrinsics.SubWithMap{String: out, Variables: vars}, nil
}
