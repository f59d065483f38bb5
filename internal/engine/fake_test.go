package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeOutcome scripts the result of one command in a fake environment.
type fakeOutcome struct {
	exitCode int
	output   string
	delay    time.Duration
	err      error
}

// fakeProvisioner hands out in-memory environments whose command
// outcomes are scripted per command text. Unknown commands succeed.
type fakeProvisioner struct {
	mu           sync.Mutex
	outcomes     map[string]fakeOutcome
	provisionErr map[string]error // by label
	environments []*fakeEnv
	teardowns    int
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		outcomes:     make(map[string]fakeOutcome),
		provisionErr: make(map[string]error),
	}
}

func (p *fakeProvisioner) script(command string, outcome fakeOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes[command] = outcome
}

func (p *fakeProvisioner) Provision(ctx context.Context, label string) (Environment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.provisionErr[label]; err != nil {
		return nil, err
	}
	env := &fakeEnv{p: p, label: label, vars: make(map[string]string)}
	p.environments = append(p.environments, env)
	return env, nil
}

func (p *fakeProvisioner) Teardown(ctx context.Context, env Environment) error {
	e, ok := env.(*fakeEnv)
	if !ok {
		return errors.New("foreign environment")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e.tornDown = true
	p.teardowns++
	return nil
}

type fakeEnv struct {
	p        *fakeProvisioner
	label    string
	mu       sync.Mutex
	commands []string
	vars     map[string]string
	tornDown bool
}

func (e *fakeEnv) Label() string { return e.label }

func (e *fakeEnv) Setenv(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
}

func (e *fakeEnv) Exec(ctx context.Context, command string) (ExecResult, error) {
	e.mu.Lock()
	e.commands = append(e.commands, command)
	e.mu.Unlock()

	e.p.mu.Lock()
	outcome := e.p.outcomes[command]
	e.p.mu.Unlock()

	if outcome.delay > 0 {
		select {
		case <-time.After(outcome.delay):
		case <-ctx.Done():
			// Killed mid-flight, like a force-terminated process.
			return ExecResult{ExitCode: -1, Output: outcome.output}, nil
		}
	}
	if outcome.err != nil {
		return ExecResult{}, outcome.err
	}
	return ExecResult{ExitCode: outcome.exitCode, Output: outcome.output}, nil
}

// recordReporter collects everything the engine reports.
type recordReporter struct {
	mu        sync.Mutex
	started   []string
	steps     map[string][]StepResult // by job
	jobs      map[string]JobResult
	pipelines []PipelineResult
}

func newRecordReporter() *recordReporter {
	return &recordReporter{
		steps: make(map[string][]StepResult),
		jobs:  make(map[string]JobResult),
	}
}

func (r *recordReporter) JobStarted(runID, job string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, job)
}

func (r *recordReporter) StepCompleted(runID, job string, result StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[job] = append(r.steps[job], result)
}

func (r *recordReporter) JobCompleted(runID string, result JobResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[result.Job] = result
}

func (r *recordReporter) PipelineCompleted(result PipelineResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines = append(r.pipelines, result)
}
