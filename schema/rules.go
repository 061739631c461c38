package schema

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// compiledRule pairs a rule's metadata with its compiled CEL program.
type compiledRule struct {
	name    string
	message string
	prog    cel.Program
}

// ruleEnv is the shared CEL environment for cross-field rules. Rules see a
// single `params` variable holding the default-filled parameter map.
var ruleEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		panic(fmt.Sprintf("schema: cel environment: %v", err))
	}
	return env
}()

// compileRules compiles every rule expression once. A rule without a
// message gets a generated one naming the rule.
func compileRules(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule with expression %q: name is required", r.Expr)
		}
		ast, iss := ruleEnv.Compile(r.Expr)
		if iss.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("rule %s: expression must evaluate to bool, got %s", r.Name, ast.OutputType())
		}
		prog, err := ruleEnv.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}

		message := r.Message
		if message == "" {
			message = fmt.Sprintf("cross-field rule %s violated", r.Name)
		}
		compiled = append(compiled, compiledRule{name: r.Name, message: message, prog: prog})
	}
	return compiled, nil
}

// eval runs the rule against the filled parameter map.
func (r compiledRule) eval(params map[string]any) (bool, error) {
	out, _, err := r.prog.Eval(map[string]any{"params": params})
	if err != nil {
		return false, err
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("expression returned %T, want bool", out.Value())
	}
	return ok, nil
}
