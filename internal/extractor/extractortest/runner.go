// Package extractortest provides a recording domain.Runner for tests.
package extractortest

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"sync"

	"github.com/teamcutter/simple-extract/internal/domain"
)

// Runner records every chain it is asked to run and never starts a process.
type Runner struct {
	mu sync.Mutex

	// Missing tools make LookPath fail.
	Missing map[string]bool
	// Fail maps a tool to the exit code it reports.
	Fail map[string]int
	// Output is written to the chain's final stdout when its last tool matches.
	Output map[string][]byte
	// Hook, when set, runs after the checks above for every chain.
	Hook func(chain []domain.Command) error

	calls [][]domain.Command
}

func (r *Runner) LookPath(tool string) (string, error) {
	if r.Missing[tool] {
		return "", &exec.Error{Name: tool, Err: exec.ErrNotFound}
	}
	return path.Join("/fake/bin", tool), nil
}

func (r *Runner) Run(ctx context.Context, chain []domain.Command) error {
	r.mu.Lock()
	r.calls = append(r.calls, chain)
	r.mu.Unlock()

	for _, c := range chain {
		if code, ok := r.Fail[c.Stage.Tool]; ok {
			return &domain.PipelineError{
				Stage:    c.Index,
				Tool:     c.Stage.Tool,
				ExitCode: code,
				Stderr:   fmt.Sprintf("%s: simulated failure", c.Stage.Tool),
			}
		}
	}

	last := chain[len(chain)-1]
	if data, ok := r.Output[last.Stage.Tool]; ok && last.Stdout != nil {
		if _, err := last.Stdout.Write(data); err != nil {
			return err
		}
	}
	if r.Hook != nil {
		return r.Hook(chain)
	}
	return nil
}

// Calls returns the chains run so far.
func (r *Runner) Calls() [][]domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]domain.Command(nil), r.calls...)
}

// Tools returns the tool names of every recorded chain.
func (r *Runner) Tools() [][]string {
	var out [][]string
	for _, chain := range r.Calls() {
		var names []string
		for _, c := range chain {
			names = append(names, c.Stage.Tool)
		}
		out = append(out, names)
	}
	return out
}
