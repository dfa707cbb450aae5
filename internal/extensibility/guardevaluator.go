package extensibility

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// GuardInput is the activation of a guard or select expression.
type GuardInput struct {
	Args      []int
	Counter   int64
	Vars      map[string]any
	Trigger   string
	State     string
	Timeouted bool
}

func (in GuardInput) activation() map[string]any {
	args := make([]int64, len(in.Args))
	for i, a := range in.Args {
		args[i] = int64(a)
	}
	vars := in.Vars
	if vars == nil {
		vars = map[string]any{}
	}
	return map[string]any{
		"args":      args,
		"counter":   in.Counter,
		"vars":      vars,
		"trigger":   in.Trigger,
		"state":     in.State,
		"timeouted": in.Timeouted,
	}
}

// Guard is a compiled boolean expression.
type Guard struct {
	source  string
	program cel.Program
}

func (g *Guard) String() string { return g.source }

// Eval reports whether the guard holds. Evaluation errors, such as a missing
// variable key, count as false and are returned for logging.
func (g *Guard) Eval(in GuardInput) (bool, error) {
	out, _, err := g.program.Eval(in.activation())
	if err != nil {
		return false, fmt.Errorf("guard %q: %w", g.source, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("guard %q: expected bool, got %T", g.source, out.Value())
	}
	return b, nil
}

// Selector is a compiled expression returning a target index.
type Selector struct {
	source  string
	program cel.Program
}

func (s *Selector) String() string { return s.source }

// Eval returns the selected index. Errors select nothing (-1).
func (s *Selector) Eval(in GuardInput) (int, error) {
	out, _, err := s.program.Eval(in.activation())
	if err != nil {
		return -1, fmt.Errorf("select %q: %w", s.source, err)
	}
	switch v := out.Value().(type) {
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	default:
		return -1, fmt.Errorf("select %q: expected int, got %T", s.source, out.Value())
	}
}

// GuardCompiler compiles guard and select expressions written in CEL. The
// expressions see:
//
//	args       list(int)          trigger arguments
//	counter    int                do-activity intervals since the state was entered
//	vars       map(string, dyn)   machine variables
//	trigger    string             trigger name, "" for completion transitions
//	state      string             source state name
//	timeouted  bool               the state's timeout deadline has passed
type GuardCompiler struct {
	env *cel.Env
}

// NewGuardCompiler builds the CEL environment.
func NewGuardCompiler() (*GuardCompiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("args", cel.ListType(cel.IntType)),
		cel.Variable("counter", cel.IntType),
		cel.Variable("vars", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("trigger", cel.StringType),
		cel.Variable("state", cel.StringType),
		cel.Variable("timeouted", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	return &GuardCompiler{env: env}, nil
}

func (c *GuardCompiler) compile(expr string, want *cel.Type) (cel.Program, error) {
	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(want) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q must return %s, got %s", expr, want, out)
	}
	prog, err := c.env.Program(ast, cel.EvalOptions(cel.OptOptimize))
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return prog, nil
}

// CompileGuard compiles a boolean expression.
func (c *GuardCompiler) CompileGuard(expr string) (*Guard, error) {
	prog, err := c.compile(expr, cel.BoolType)
	if err != nil {
		return nil, err
	}
	return &Guard{source: expr, program: prog}, nil
}

// CompileSelect compiles an expression returning a target index.
func (c *GuardCompiler) CompileSelect(expr string) (*Selector, error) {
	prog, err := c.compile(expr, cel.IntType)
	if err != nil {
		return nil, err
	}
	return &Selector{source: expr, program: prog}, nil
}
