// Package localenv provisions job environments as local shell
// processes sharing a per-job temp workspace. It needs no docker
// daemon, which makes it the provisioner of choice for tests and for
// the CLI's offline run command.
package localenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"mast/internal/engine"
)

type Provisioner struct {
	// BaseDir is the parent directory for job workspaces; the system
	// temp dir when empty.
	BaseDir string
}

func (p *Provisioner) Provision(ctx context.Context, label string) (engine.Environment, error) {
	dir, err := os.MkdirTemp(p.BaseDir, "mast-job-")
	if err != nil {
		return nil, fmt.Errorf("create job workspace: %w", err)
	}
	return &environment{label: label, dir: dir, env: os.Environ()}, nil
}

func (p *Provisioner) Teardown(ctx context.Context, env engine.Environment) error {
	e, ok := env.(*environment)
	if !ok {
		return errors.New("localenv: foreign environment")
	}
	return os.RemoveAll(e.dir)
}

// environment is job-scoped: the workspace directory and exported
// variables persist across steps of one job and are never shared
// between jobs.
type environment struct {
	label string
	dir   string

	mu  sync.Mutex
	env []string
}

func (e *environment) Label() string { return e.label }

func (e *environment) Setenv(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prefix := key + "="
	for i, kv := range e.env {
		if strings.HasPrefix(kv, prefix) {
			e.env[i] = prefix + value
			return
		}
	}
	e.env = append(e.env, prefix+value)
}

func (e *environment) Exec(ctx context.Context, command string) (engine.ExecResult, error) {
	e.mu.Lock()
	env := make([]string, len(e.env))
	copy(env, e.env)
	e.mu.Unlock()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = e.dir
	cmd.Env = env

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := engine.ExecResult{Output: out.String()}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Non-zero exit (or kill on ctx expiry) is data, not an
		// infrastructure fault.
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, fmt.Errorf("exec step command: %w", err)
}
