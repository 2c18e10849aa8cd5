package jobs

import "context"

// Job is a single batch task run to completion by a command.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

// Func adapts a function into a named Job.
func Func(name string, run func(ctx context.Context) error) Job {
	return funcJob{name: name, run: run}
}

func (j funcJob) Name() string { return j.name }

func (j funcJob) Run(ctx context.Context) error {
	if j.run == nil {
		return nil
	}
	return j.run(ctx)
}
