package localenv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCapturesOutputAndExitCode(t *testing.T) {
	p := &Provisioner{}
	env, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)
	defer p.Teardown(context.Background(), env)

	res, err := env.Exec(context.Background(), "echo hello; echo oops >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "hello")
	assert.Contains(t, res.Output, "oops")

	res, err = env.Exec(context.Background(), "exit 3")
	require.NoError(t, err, "non-zero exit is data, not an error")
	assert.Equal(t, 3, res.ExitCode)
}

func TestWorkspacePersistsAcrossSteps(t *testing.T) {
	p := &Provisioner{}
	env, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)
	defer p.Teardown(context.Background(), env)

	_, err = env.Exec(context.Background(), "echo data > state.txt")
	require.NoError(t, err)

	res, err := env.Exec(context.Background(), "cat state.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "data")
}

func TestSetenvVisibleToLaterSteps(t *testing.T) {
	p := &Provisioner{}
	env, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)
	defer p.Teardown(context.Background(), env)

	env.Setenv("TOOLCHAIN", "nightly")
	res, err := env.Exec(context.Background(), "echo $TOOLCHAIN")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "nightly")

	env.Setenv("TOOLCHAIN", "stable")
	res, err = env.Exec(context.Background(), "echo $TOOLCHAIN")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "stable")
}

func TestTeardownRemovesWorkspace(t *testing.T) {
	p := &Provisioner{}
	env, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)

	dir := env.(*environment).dir
	_, err = os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, p.Teardown(context.Background(), env))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestExecForcedTermination(t *testing.T) {
	p := &Provisioner{}
	env, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)
	defer p.Teardown(context.Background(), env)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := env.Exec(ctx, "sleep 10")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NotEqual(t, 0, res.ExitCode)
}

func TestEnvironmentsAreIsolated(t *testing.T) {
	p := &Provisioner{}
	a, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)
	defer p.Teardown(context.Background(), a)
	b, err := p.Provision(context.Background(), "ubuntu-latest")
	require.NoError(t, err)
	defer p.Teardown(context.Background(), b)

	_, err = a.Exec(context.Background(), "echo private > secret.txt")
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "cat secret.txt")
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode, "jobs must not share workspaces")
}
