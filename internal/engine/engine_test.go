package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mast/pkg/decl"
)

func commandJob(name string, commands ...string) decl.Job {
	job := decl.Job{Name: name, RunsOn: "ubuntu-latest"}
	for _, c := range commands {
		job.Steps = append(job.Steps, decl.Step{Run: c})
	}
	return job
}

func pipelineOf(jobs ...decl.Job) *decl.Pipeline {
	return &decl.Pipeline{
		Name: "checks",
		On:   []string{decl.EventPullRequest},
		Jobs: jobs,
	}
}

func TestRunAllJobsSucceed(t *testing.T) {
	// Three independent jobs with two steps each, all succeeding.
	prov := newFakeProvisioner()
	rep := newRecordReporter()
	eng := New(prov, Config{Reporter: rep})

	p := pipelineOf(
		commandJob("fmt", "cargo fmt --check", "echo done"),
		commandJob("clippy", "cargo clippy", "echo done"),
		commandJob("docs", "cargo doc", "echo done"),
	)

	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, verdict.Status)
	require.Len(t, verdict.Jobs, 3)
	total := 0
	for name, jr := range verdict.Jobs {
		assert.Equal(t, StatusSuccess, jr.Status, "job %s", name)
		for _, sr := range jr.Steps {
			assert.Equal(t, StatusSuccess, sr.Status)
			total++
		}
	}
	assert.Equal(t, 6, total)
	assert.NotEmpty(t, verdict.RunID)
	require.Len(t, rep.pipelines, 1)
	assert.Equal(t, StatusSuccess, rep.pipelines[0].Status)
}

func TestRunFailureShortCircuitsJob(t *testing.T) {
	// lint: install succeeds, run-lint fails; no third step exists.
	prov := newFakeProvisioner()
	prov.script("run-lint", fakeOutcome{exitCode: 1, output: "3 warnings"})
	eng := New(prov, Config{})

	p := pipelineOf(commandJob("lint", "install-tool", "run-lint"))
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	lint := verdict.Jobs["lint"]
	assert.Equal(t, StatusFailed, lint.Status)
	require.Len(t, lint.Steps, 2)
	assert.Equal(t, StatusSuccess, lint.Steps[0].Status)
	assert.Equal(t, StatusFailed, lint.Steps[1].Status)
	assert.Equal(t, ReasonExit, lint.Steps[1].Reason)
	assert.Equal(t, 1, lint.Steps[1].ExitCode)
	assert.Contains(t, lint.Steps[1].Output, "3 warnings")
}

func TestRunStepsAfterFailureAreSkipped(t *testing.T) {
	prov := newFakeProvisioner()
	prov.script("step2", fakeOutcome{exitCode: 2})
	eng := New(prov, Config{})

	p := pipelineOf(commandJob("build", "step1", "step2", "step3", "step4"))
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	build := verdict.Jobs["build"]
	require.Len(t, build.Steps, 4)
	assert.Equal(t, StatusSuccess, build.Steps[0].Status)
	assert.Equal(t, StatusFailed, build.Steps[1].Status)
	assert.Equal(t, StatusSkipped, build.Steps[2].Status)
	assert.Equal(t, StatusSkipped, build.Steps[3].Status)

	// The skipped commands never reached the environment.
	require.Len(t, prov.environments, 1)
	assert.Equal(t, []string{"step1", "step2"}, prov.environments[0].commands)
}

func TestRunStepTimeout(t *testing.T) {
	// Step 2 exceeds its limit: forced termination, step 3 skipped.
	prov := newFakeProvisioner()
	prov.script("slow", fakeOutcome{delay: time.Second})
	eng := New(prov, Config{})

	p := pipelineOf(decl.Job{
		Name:   "build",
		RunsOn: "ubuntu-latest",
		Steps: []decl.Step{
			{Run: "step1"},
			{Run: "slow", Timeout: "20ms"},
			{Run: "step3"},
		},
	})
	start := time.Now()
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "timeout must terminate the step early")

	build := verdict.Jobs["build"]
	assert.Equal(t, StatusFailed, build.Status)
	require.Len(t, build.Steps, 3)
	assert.Equal(t, StatusFailed, build.Steps[1].Status)
	assert.Equal(t, ReasonTimeout, build.Steps[1].Reason)
	assert.Equal(t, StatusSkipped, build.Steps[2].Status)
}

func TestRunSiblingJobsAreIsolated(t *testing.T) {
	// One job fails, one succeeds: overall failure, both reported
	// distinctly.
	prov := newFakeProvisioner()
	prov.script("bad", fakeOutcome{exitCode: 1, output: "boom"})
	rep := newRecordReporter()
	eng := New(prov, Config{Reporter: rep})

	p := pipelineOf(commandJob("good-job", "ok"), commandJob("bad-job", "bad"))
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	assert.Equal(t, StatusSuccess, verdict.Jobs["good-job"].Status)
	assert.Equal(t, StatusFailed, verdict.Jobs["bad-job"].Status)

	assert.Equal(t, StatusSuccess, rep.jobs["good-job"].Status)
	assert.Equal(t, StatusFailed, rep.jobs["bad-job"].Status)
	assert.Contains(t, rep.steps["bad-job"][0].Output, "boom")
	assert.Empty(t, rep.steps["good-job"][0].Output)
}

func TestRunEventGate(t *testing.T) {
	prov := newFakeProvisioner()
	eng := New(prov, Config{})

	p := pipelineOf(commandJob("fmt", "ok"))
	_, err := eng.Run(context.Background(), p, decl.EventPush)
	require.ErrorIs(t, err, ErrEventNotMatched)
	assert.Empty(t, prov.environments, "nothing may execute on a trigger mismatch")
}

func TestRunTeardownOnEveryPath(t *testing.T) {
	prov := newFakeProvisioner()
	prov.script("bad", fakeOutcome{exitCode: 1})
	eng := New(prov, Config{})

	p := pipelineOf(commandJob("a", "ok"), commandJob("b", "bad"))
	_, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	assert.Equal(t, 2, prov.teardowns)
	for _, env := range prov.environments {
		assert.True(t, env.tornDown)
	}
}

func TestRunProvisionFailureFailsJobOnly(t *testing.T) {
	prov := newFakeProvisioner()
	prov.provisionErr["broken-label"] = errors.New("no capacity")
	eng := New(prov, Config{})

	p := pipelineOf(
		commandJob("good", "ok"),
		decl.Job{Name: "doomed", RunsOn: "broken-label", Steps: []decl.Step{{Run: "never"}}},
	)
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	assert.Equal(t, StatusSuccess, verdict.Jobs["good"].Status)
	doomed := verdict.Jobs["doomed"]
	assert.Equal(t, StatusFailed, doomed.Status)
	require.NotEmpty(t, doomed.Steps)
	assert.Equal(t, ReasonEnvironment, doomed.Steps[0].Reason)
	assert.Equal(t, StatusSkipped, doomed.Steps[len(doomed.Steps)-1].Status)
}

func TestRunActionResolution(t *testing.T) {
	prov := newFakeProvisioner()
	eng := New(prov, Config{})

	p := pipelineOf(decl.Job{
		Name:   "setup",
		RunsOn: "ubuntu-latest",
		Steps: []decl.Step{
			{Uses: "no-such-action"},
			{Run: "after"},
		},
	})
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)

	setup := verdict.Jobs["setup"]
	assert.Equal(t, StatusFailed, setup.Status)
	assert.Equal(t, ReasonResolution, setup.Steps[0].Reason)
	assert.Contains(t, setup.Steps[0].Output, "no-such-action")
	assert.Equal(t, StatusSkipped, setup.Steps[1].Status)
}

func TestRunActionMutatesJobEnvironment(t *testing.T) {
	prov := newFakeProvisioner()
	eng := New(prov, Config{})

	p := pipelineOf(decl.Job{
		Name:   "rust",
		RunsOn: "ubuntu-latest",
		Steps: []decl.Step{
			{Uses: "setup-rust", With: map[string]string{"toolchain": "nightly"}},
			{Run: "cargo fmt --check"},
		},
	})
	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, verdict.Status)

	require.Len(t, prov.environments, 1)
	env := prov.environments[0]
	assert.Contains(t, env.commands[0], "rustup toolchain install nightly")
	assert.Equal(t, "never", env.vars["CARGO_TERM_COLOR"])
}

func TestRunScheduleOrderIrrelevant(t *testing.T) {
	// Permuting job order and concurrency never changes the verdict.
	jobs := []decl.Job{
		commandJob("a", "ok"),
		commandJob("b", "bad"),
		commandJob("c", "ok"),
		commandJob("d", "ok"),
	}

	statuses := func(concurrency int, order []decl.Job) map[string]Status {
		prov := newFakeProvisioner()
		prov.script("bad", fakeOutcome{exitCode: 1})
		eng := New(prov, Config{MaxConcurrency: concurrency})
		verdict, err := eng.Run(context.Background(), pipelineOf(order...), decl.EventPullRequest)
		require.NoError(t, err)
		out := make(map[string]Status, len(verdict.Jobs))
		for name, jr := range verdict.Jobs {
			out[name] = jr.Status
		}
		return out
	}

	want := statuses(1, jobs)
	rng := rand.New(rand.NewSource(1))
	for _, concurrency := range []int{1, 2, 8} {
		shuffled := append([]decl.Job(nil), jobs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, statuses(concurrency, shuffled))
	}
}

func TestRunReportsJobStart(t *testing.T) {
	// Executed jobs announce themselves before any outcome; jobs
	// skipped by a dead predecessor never start at all.
	prov := newFakeProvisioner()
	prov.script("bad", fakeOutcome{exitCode: 1})
	rep := newRecordReporter()
	eng := New(prov, Config{Reporter: rep})

	blocked := commandJob("package", "tar czf dist.tar.gz .")
	blocked.Needs = []string{"build"}
	p := pipelineOf(commandJob("build", "bad"), blocked)

	verdict, err := eng.Run(context.Background(), p, decl.EventPullRequest)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, verdict.Status)

	assert.Equal(t, []string{"build"}, rep.started)
	assert.Equal(t, StatusSkipped, rep.jobs["package"].Status)
}
