package mixer

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// ErrInvalidRule is returned for a rule whose pattern or expression does not
// compile.
var ErrInvalidRule = errkind.New(errkind.Resolution, "invalid filter rule")

// Rule selects fragments. Kind and Name are regular expressions anchored at
// both ends; a Name of "*" matches any name. Match is an optional CEL
// expression over kind, name, namespace, labels and object. A rule with no
// fields matches nothing.
type Rule struct {
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Match string `json:"match,omitempty" yaml:"match,omitempty"`
}

// Wildcard matches any name.
const Wildcard = "*"

func (r Rule) empty() bool {
	return r.Kind == "" && r.Name == "" && r.Match == ""
}

// Matches reports whether f satisfies the rule.
func (r Rule) Matches(f Fragment) (bool, error) {
	if r.empty() || len(f) == 0 {
		return false, nil
	}

	if r.Kind != "" {
		ok, err := anchoredMatch(r.Kind, f.Kind())
		if err != nil || !ok {
			return false, err
		}
	}

	if r.Name != "" && r.Name != Wildcard {
		ok, err := anchoredMatch(r.Name, f.Name())
		if err != nil || !ok {
			return false, err
		}
	}

	if r.Match != "" {
		return evalMatch(r.Match, f)
	}
	return true, nil
}

var (
	patternCache sync.Map // string -> *regexp.Regexp
	programCache sync.Map // string -> cel.Program
)

func anchoredMatch(pattern, s string) (bool, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(s), nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrInvalidRule, pattern, err)
	}
	patternCache.Store(pattern, re)
	return re.MatchString(s), nil
}

var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("namespace", cel.StringType),
		cel.Variable("labels", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("object", cel.MapType(cel.StringType, cel.DynType)),
	)
})

func evalMatch(expr string, f Fragment) (bool, error) {
	prg, err := compileMatch(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"kind":      f.Kind(),
		"name":      f.Name(),
		"namespace": f.Namespace(),
		"labels":    f.Labels(),
		"object":    map[string]any(f),
	})
	if err != nil {
		return false, fmt.Errorf("%w: evaluate %q: %v", ErrInvalidRule, expr, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q does not evaluate to a bool", ErrInvalidRule, expr)
	}
	return matched, nil
}

func compileMatch(expr string) (cel.Program, error) {
	if cached, ok := programCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}

	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRule, expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q must return a bool", ErrInvalidRule, expr)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRule, expr, err)
	}
	programCache.Store(expr, prg)
	return prg, nil
}

// matchesAny reports whether any rule matches f.
func matchesAny(rules []Rule, f Fragment) (bool, error) {
	for _, rule := range rules {
		ok, err := rule.Matches(f)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Filter keeps fragments matching at least one only rule (all of them when
// only is empty) and then drops those matching any except rule.
func Filter(frags []Fragment, only, except []Rule) ([]Fragment, error) {
	out := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		if len(only) > 0 {
			keep, err := matchesAny(only, f)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		if len(except) > 0 {
			drop, err := matchesAny(except, f)
			if err != nil {
				return nil, err
			}
			if drop {
				continue
			}
		}
		out = append(out, f)
	}
	return out, nil
}
