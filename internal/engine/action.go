package engine

import (
	"context"
	"fmt"
)

// Invocable is a resolved reusable action, ready to run with a step's
// "with:" options.
type Invocable interface {
	Invoke(ctx context.Context, env Environment, with map[string]string) (ExecResult, error)
}

// Resolver turns an action name into an invocable capability.
type Resolver interface {
	Resolve(name string) (Invocable, error)
}

// ResolutionError reports an action name the resolver does not know.
// It is recovered into a failed StepResult, never a crash.
type ResolutionError struct {
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve action %q", e.Name)
}

// shellAction renders a command from the step options and runs it in
// the job environment. exports, when set, mutate the environment
// before the command runs.
type shellAction struct {
	render  func(with map[string]string) string
	exports func(with map[string]string) map[string]string
}

func (a shellAction) Invoke(ctx context.Context, env Environment, with map[string]string) (ExecResult, error) {
	if a.exports != nil {
		for k, v := range a.exports(with) {
			env.Setenv(k, v)
		}
	}
	return env.Exec(ctx, a.render(with))
}

func opt(with map[string]string, key, def string) string {
	if v, ok := with[key]; ok && v != "" {
		return v
	}
	return def
}

// builtinActions is the closed action table. Entries are configuration
// data for the resolver; the engine never special-cases any of them.
var builtinActions = map[string]Invocable{
	"checkout": shellAction{
		render: func(with map[string]string) string {
			repo := opt(with, "repository", "$REPO_URL")
			ref := opt(with, "ref", "")
			cmd := fmt.Sprintf("git clone --depth=1 %s .", repo)
			if ref != "" {
				cmd = fmt.Sprintf("git clone %s . && git checkout %s", repo, ref)
			}
			return cmd
		},
	},
	"setup-rust": shellAction{
		render: func(with map[string]string) string {
			toolchain := opt(with, "toolchain", "stable")
			cmd := fmt.Sprintf("rustup toolchain install %s && rustup default %s", toolchain, toolchain)
			if components := opt(with, "components", ""); components != "" {
				cmd += fmt.Sprintf(" && rustup component add %s", components)
			}
			return cmd
		},
		exports: func(with map[string]string) map[string]string {
			return map[string]string{"CARGO_TERM_COLOR": "never"}
		},
	},
	"setup-go": shellAction{
		render: func(with map[string]string) string {
			version := opt(with, "version", "1.22")
			return fmt.Sprintf(
				"curl -fsSL https://go.dev/dl/go%s.linux-amd64.tar.gz | tar -C /usr/local -xz", version)
		},
		exports: func(with map[string]string) map[string]string {
			return map[string]string{"PATH": "/usr/local/go/bin:$PATH"}
		},
	},
}

// BuiltinResolver resolves against the builtin action table, extended
// by any entries registered at construction.
type BuiltinResolver struct {
	actions map[string]Invocable
}

func NewBuiltinResolver(extra map[string]Invocable) *BuiltinResolver {
	actions := make(map[string]Invocable, len(builtinActions)+len(extra))
	for name, act := range builtinActions {
		actions[name] = act
	}
	for name, act := range extra {
		actions[name] = act
	}
	return &BuiltinResolver{actions: actions}
}

func (r *BuiltinResolver) Resolve(name string) (Invocable, error) {
	act, ok := r.actions[name]
	if !ok {
		return nil, &ResolutionError{Name: name}
	}
	return act, nil
}
