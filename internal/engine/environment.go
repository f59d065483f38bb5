package engine

import "context"

// ExecResult is the outcome of one command inside an environment.
// A non-zero exit code is data, not an error; Exec returns an error
// only for infrastructure faults (the environment itself broke).
type ExecResult struct {
	ExitCode int
	Output   string // combined stdout+stderr
}

// Environment is an isolated execution context dedicated to a single
// job. Mutations made by one step (installed tools, exported
// variables, files in the workspace) are observed by later steps of
// the same job and by no one else.
type Environment interface {
	// Label is the runs_on label the environment was provisioned for.
	Label() string
	// Exec runs a shell command, honoring ctx cancellation by forcibly
	// terminating the command.
	Exec(ctx context.Context, command string) (ExecResult, error)
	// Setenv exports a variable to all subsequent Exec calls.
	Setenv(key, value string)
}

// Provisioner supplies fresh environments and guarantees teardown.
// The engine calls Teardown exactly once per provisioned environment,
// on every exit path.
type Provisioner interface {
	Provision(ctx context.Context, label string) (Environment, error)
	Teardown(ctx context.Context, env Environment) error
}
