package engine

import (
	"sync"

	"mast/pkg/decl"
)

// Scheduler decides which jobs run and dispatches them concurrently.
// Jobs without needs edges all start at once (semaphore-bounded);
// a job with needs starts only when every predecessor ended success,
// and is recorded skipped when any predecessor ended failed or
// skipped. With no edges declared this degenerates to running every
// job in parallel.
type Scheduler struct {
	MaxConcurrency int
}

// Eligible applies the pipeline-level trigger gate. Eligibility is
// uniform: either the event authorizes every job, or none.
func (s *Scheduler) Eligible(p *decl.Pipeline, event string) []decl.Job {
	if !p.Triggered(event) {
		return nil
	}
	return p.Jobs
}

// Run executes the given jobs and blocks until every one of them is
// terminal. run executes a job; skip produces the terminal result for
// a job whose predecessors made it unrunnable.
func (s *Scheduler) Run(jobs []decl.Job, run, skip func(decl.Job) JobResult) map[string]JobResult {
	sc := &schedule{
		jobs:       make(map[string]decl.Job, len(jobs)),
		dependents: make(map[string][]string),
		status:     make(map[string]Status, len(jobs)),
		results:    make(map[string]JobResult, len(jobs)),
		sem:        make(chan struct{}, s.MaxConcurrency),
		run:        run,
		skip:       skip,
	}
	for _, job := range jobs {
		sc.jobs[job.Name] = job
		sc.status[job.Name] = StatusPending
		for _, dep := range job.Needs {
			sc.dependents[dep] = append(sc.dependents[dep], job.Name)
		}
	}

	sc.wg.Add(len(jobs))
	var initial []decl.Job
	sc.mu.Lock()
	for _, job := range jobs {
		if len(job.Needs) == 0 {
			sc.status[job.Name] = StatusRunning
			initial = append(initial, job)
		}
	}
	sc.mu.Unlock()

	for _, job := range initial {
		go sc.execute(job)
	}
	sc.wg.Wait()
	return sc.results
}

type schedule struct {
	jobs       map[string]decl.Job
	dependents map[string][]string // job name -> jobs that need it

	mu      sync.Mutex
	status  map[string]Status
	results map[string]JobResult

	wg   sync.WaitGroup
	sem  chan struct{}
	run  func(decl.Job) JobResult
	skip func(decl.Job) JobResult
}

func (sc *schedule) execute(job decl.Job) {
	sc.sem <- struct{}{}
	result := sc.run(job)
	<-sc.sem
	sc.complete(job.Name, result)
}

// complete records a terminal result and evaluates jobs that were
// waiting on it. Called exactly once per job.
func (sc *schedule) complete(name string, result JobResult) {
	sc.mu.Lock()
	sc.results[name] = result
	sc.status[name] = result.Status

	var ready, dead []decl.Job
	for _, depName := range sc.dependents[name] {
		if sc.status[depName] != StatusPending {
			continue
		}
		switch sc.needsState(depName) {
		case needsReady:
			sc.status[depName] = StatusRunning
			ready = append(ready, sc.jobs[depName])
		case needsDead:
			sc.status[depName] = StatusSkipped
			dead = append(dead, sc.jobs[depName])
		}
	}
	sc.mu.Unlock()

	for _, job := range ready {
		go sc.execute(job)
	}
	// Skips are terminal too and cascade to their own dependents.
	for _, job := range dead {
		sc.complete(job.Name, sc.skip(job))
	}
	sc.wg.Done()
}

type needsOutcome int

const (
	needsBlocked needsOutcome = iota // some predecessor still pending/running
	needsReady                       // all predecessors succeeded
	needsDead                        // a predecessor failed or was skipped
)

// needsState is called with sc.mu held.
func (sc *schedule) needsState(name string) needsOutcome {
	outcome := needsReady
	for _, dep := range sc.jobs[name].Needs {
		switch sc.status[dep] {
		case StatusFailed, StatusSkipped:
			return needsDead
		case StatusSuccess:
		default:
			outcome = needsBlocked
		}
	}
	return outcome
}
