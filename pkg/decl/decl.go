package decl

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Event kinds a declaration may list under "on:".
const (
	EventPullRequest = "pull_request"
	EventPush        = "push"
	EventTag         = "tag"
	EventManual      = "manual"
	EventSchedule    = "schedule"
)

var recognizedEvents = map[string]bool{
	EventPullRequest: true,
	EventPush:        true,
	EventTag:         true,
	EventManual:      true,
	EventSchedule:    true,
}

// Pipeline is the validated in-memory form of a declaration document.
// It is immutable after Parse returns.
type Pipeline struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	On          []string `yaml:"on"`
	Cron        string   `yaml:"cron,omitempty"` // required when "schedule" is listed
	Jobs        []Job    `yaml:"jobs"`
}

type Job struct {
	Name   string   `yaml:"name"`
	RunsOn string   `yaml:"runs_on"`
	Needs  []string `yaml:"needs,omitempty"` // predecessor job names
	Steps  []Step   `yaml:"steps"`
}

// Step is either a command ({run}) or a named action ({uses, with}).
type Step struct {
	Name    string            `yaml:"name,omitempty"`
	Run     string            `yaml:"run,omitempty"`
	Uses    string            `yaml:"uses,omitempty"`
	With    map[string]string `yaml:"with,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"` // e.g. "90s"; engine default when empty
}

// IsAction reports whether the step invokes a named action rather than
// a command.
func (s Step) IsAction() bool { return s.Uses != "" }

// Label returns a human-readable identifier for reporting.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.IsAction() {
		return s.Uses
	}
	return s.Run
}

// TimeoutDuration returns the declared per-step limit, or def when the
// step declares none. Parse guarantees the declared value is valid.
func (s Step) TimeoutDuration(def time.Duration) time.Duration {
	if s.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return def
	}
	return d
}

// ParseError reports a malformed declaration. Nothing executes when
// Parse fails.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "invalid pipeline declaration: " + e.Reason
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// Parse decodes and validates a declaration document. It has no side
// effects; parsing the same document twice yields structurally equal
// pipelines.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, parseErrorf("yaml: %v", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Triggered reports whether event authorizes a run of this pipeline.
func (p *Pipeline) Triggered(event string) bool {
	for _, e := range p.On {
		if e == event {
			return true
		}
	}
	return false
}

// Job returns the named job, or nil.
func (p *Pipeline) Job(name string) *Job {
	for i := range p.Jobs {
		if p.Jobs[i].Name == name {
			return &p.Jobs[i]
		}
	}
	return nil
}

func (p *Pipeline) validate() error {
	if p.Name == "" {
		return parseErrorf("pipeline name is required")
	}
	if len(p.On) == 0 {
		return parseErrorf("pipeline %q declares no trigger events", p.Name)
	}
	for _, e := range p.On {
		if !recognizedEvents[e] {
			return parseErrorf("unrecognized trigger event %q", e)
		}
		if e == EventSchedule && p.Cron == "" {
			return parseErrorf("trigger event %q requires a cron expression", e)
		}
	}
	if len(p.Jobs) == 0 {
		return parseErrorf("pipeline %q declares no jobs", p.Name)
	}

	names := make(map[string]bool, len(p.Jobs))
	for _, job := range p.Jobs {
		if job.Name == "" {
			return parseErrorf("job without a name")
		}
		if names[job.Name] {
			return parseErrorf("duplicate job name %q", job.Name)
		}
		names[job.Name] = true
		if job.RunsOn == "" {
			return parseErrorf("job %q declares no runs_on label", job.Name)
		}
		if len(job.Steps) == 0 {
			return parseErrorf("job %q declares no steps", job.Name)
		}
		for i, step := range job.Steps {
			if step.Run == "" && step.Uses == "" {
				return parseErrorf("job %q step %d declares neither run nor uses", job.Name, i+1)
			}
			if step.Run != "" && step.Uses != "" {
				return parseErrorf("job %q step %d declares both run and uses", job.Name, i+1)
			}
			if step.Timeout != "" {
				if _, err := time.ParseDuration(step.Timeout); err != nil {
					return parseErrorf("job %q step %d has invalid timeout %q", job.Name, i+1, step.Timeout)
				}
			}
		}
	}

	for _, job := range p.Jobs {
		seen := make(map[string]bool, len(job.Needs))
		for _, dep := range job.Needs {
			if dep == job.Name {
				return parseErrorf("job %q depends on itself", job.Name)
			}
			if !names[dep] {
				return parseErrorf("job %q needs unknown job %q", job.Name, dep)
			}
			if seen[dep] {
				return parseErrorf("job %q lists need %q twice", job.Name, dep)
			}
			seen[dep] = true
		}
	}
	return p.checkCycles()
}

// checkCycles rejects declarations whose needs edges are not a DAG.
func (p *Pipeline) checkCycles() error {
	const (
		white = 0 // unvisited
		grey  = 1 // on the current path
		black = 2 // done
	)
	color := make(map[string]int, len(p.Jobs))

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case grey:
			return parseErrorf("dependency cycle through job %q", name)
		case black:
			return nil
		}
		color[name] = grey
		for _, dep := range p.Job(name).Needs {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, job := range p.Jobs {
		if err := visit(job.Name); err != nil {
			return err
		}
	}
	return nil
}
