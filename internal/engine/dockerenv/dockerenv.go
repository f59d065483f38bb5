// Package dockerenv provisions one docker container per job. Steps of
// a job exec inside the same container, so toolchains installed by one
// step are visible to the next while other jobs see nothing.
package dockerenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"mast/internal/engine"
)

// defaultImages maps runs_on labels to container images. An unknown
// label is used as the image reference directly.
var defaultImages = map[string]string{
	"ubuntu-latest": "ubuntu:24.04",
	"ubuntu-22.04":  "ubuntu:22.04",
	"alpine":        "alpine:3.19",
}

type Provisioner struct {
	cli    *client.Client
	images map[string]string
}

func NewProvisioner(images map[string]string) (*Provisioner, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}
	merged := make(map[string]string, len(defaultImages)+len(images))
	for label, image := range defaultImages {
		merged[label] = image
	}
	for label, image := range images {
		merged[label] = image
	}
	return &Provisioner{cli: cli, images: merged}, nil
}

func (p *Provisioner) Provision(ctx context.Context, label string) (engine.Environment, error) {
	image, ok := p.images[label]
	if !ok {
		image = label
	}

	resp, err := p.cli.ContainerCreate(
		ctx,
		&container.Config{
			Image:      image,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: "/workspace",
		},
		nil, nil, nil, "",
	)
	if err != nil {
		return nil, fmt.Errorf("create container for %q: %w", label, err)
	}
	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = p.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("start container %s: %w", resp.ID[:12], err)
	}
	return &environment{cli: p.cli, containerID: resp.ID, label: label}, nil
}

func (p *Provisioner) Teardown(ctx context.Context, env engine.Environment) error {
	e, ok := env.(*environment)
	if !ok {
		return errors.New("dockerenv: foreign environment")
	}
	return p.cli.ContainerRemove(ctx, e.containerID, container.RemoveOptions{Force: true})
}

type environment struct {
	cli         *client.Client
	containerID string
	label       string

	mu  sync.Mutex
	env []string
}

func (e *environment) Label() string { return e.label }

func (e *environment) Setenv(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.env = append(e.env, key+"="+value)
}

func (e *environment) Exec(ctx context.Context, command string) (engine.ExecResult, error) {
	e.mu.Lock()
	env := make([]string, len(e.env))
	copy(env, e.env)
	e.mu.Unlock()

	execResp, err := e.cli.ContainerExecCreate(ctx, e.containerID, types.ExecConfig{
		Cmd:          []string{"sh", "-c", command},
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return engine.ExecResult{}, fmt.Errorf("create exec: %w", err)
	}

	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return engine.ExecResult{}, fmt.Errorf("attach exec: %w", err)
	}
	defer attach.Close()

	var out bytes.Buffer
	copyDone := make(chan error, 1)
	go func() {
		// Interleave stdout and stderr into one combined stream.
		_, cpErr := stdcopy.StdCopy(&out, &out, attach.Reader)
		copyDone <- cpErr
	}()

	select {
	case cpErr := <-copyDone:
		if cpErr != nil {
			return engine.ExecResult{Output: out.String()}, fmt.Errorf("read exec output: %w", cpErr)
		}
	case <-ctx.Done():
		// Force-terminate: closing the attach kills the stream; the
		// step executor maps the expired ctx to a timeout failure.
		attach.Close()
		<-copyDone
		return engine.ExecResult{Output: out.String(), ExitCode: -1}, nil
	}

	inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return engine.ExecResult{Output: out.String()}, fmt.Errorf("inspect exec: %w", err)
	}
	return engine.ExecResult{Output: out.String(), ExitCode: inspect.ExitCode}, nil
}
