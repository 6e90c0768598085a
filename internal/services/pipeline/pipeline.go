package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// Pipeline runs its stages in order: car, plate, characters.
type Pipeline struct {
	runner *Runner
	stages []Stage
}

func New(runner *Runner, stages ...Stage) *Pipeline {
	return &Pipeline{runner: runner, stages: stages}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Validate reports an error for names that are not stages of p.
func (p *Pipeline) Validate(only []string) error {
	known := make(map[string]bool, len(p.stages))
	for _, s := range p.stages {
		known[s.Name()] = true
	}
	for _, name := range only {
		if !known[name] {
			return fmt.Errorf("unknown stage %q (have %s)", name, strings.Join(p.Stages(), ", "))
		}
	}
	return nil
}

// Run executes every stage, or only the named ones, keeping pipeline order.
// A stage that cannot start stops the run; failures of single images do not.
func (p *Pipeline) Run(ctx context.Context, only ...string) ([]StageReport, error) {
	if err := p.Validate(only); err != nil {
		return nil, err
	}
	selected := make(map[string]bool, len(only))
	for _, name := range only {
		selected[name] = true
	}

	var reports []StageReport
	for _, stage := range p.stages {
		if len(only) > 0 && !selected[stage.Name()] {
			continue
		}
		report, err := p.runner.RunStage(ctx, stage)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// ParseStages splits a comma separated stage list. Blank input means all stages.
func ParseStages(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" && part != "all" {
			names = append(names, part)
		}
	}
	return names
}
