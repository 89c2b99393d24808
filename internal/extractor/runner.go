package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/teamcutter/simple-extract/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ExecRunner runs commands as real subprocesses.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) LookPath(tool string) (string, error) {
	return exec.LookPath(tool)
}

// Run starts every command of the chain, joined by OS pipes, and waits for all
// of them. The first command to fail cancels the others.
func (r *ExecRunner) Run(ctx context.Context, chain []domain.Command) error {
	if len(chain) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	cmds := make([]*exec.Cmd, len(chain))
	stderr := make([]bytes.Buffer, len(chain))
	for i, c := range chain {
		cmd := exec.CommandContext(gctx, c.Path, c.Args...)
		cmd.Dir = c.Dir
		cmd.Stdin = c.Stdin
		cmd.Stdout = c.Stdout
		cmd.Stderr = &stderr[i]
		cmds[i] = cmd
	}

	var pipes []*os.File
	closePipes := func() {
		for _, p := range pipes {
			p.Close()
		}
	}
	for i := 0; i < len(cmds)-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			closePipes()
			return fmt.Errorf("pipe %s to %s: %w", chain[i].Stage.Tool, chain[i+1].Stage.Tool, err)
		}
		cmds[i].Stdout = pw
		cmds[i+1].Stdin = pr
		pipes = append(pipes, pr, pw)
	}

	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			for _, started := range cmds[:i] {
				started.Process.Kill()
				started.Wait()
			}
			closePipes()
			return &domain.PipelineError{Stage: chain[i].Index, Tool: chain[i].Stage.Tool, ExitCode: -1, Err: err}
		}
	}
	// children hold their own copies
	closePipes()

	errs := make([]error, len(cmds))
	for i, cmd := range cmds {
		g.Go(func() error {
			if err := cmd.Wait(); err != nil {
				errs[i] = stageError(chain[i], err, stderr[i].String())
				return errs[i]
			}
			return nil
		})
	}
	return blame(errs, g.Wait())
}

// blame picks the furthest upstream stage that exited on its own with a
// non-zero code. Stages ended by a signal (cancelled, or a broken pipe after a
// downstream exit) only count when nothing else failed.
func blame(errs []error, first error) error {
	for _, err := range errs {
		var pipeErr *domain.PipelineError
		if errors.As(err, &pipeErr) && pipeErr.ExitCode >= 0 {
			return err
		}
	}
	return first
}

func stageError(c domain.Command, err error, stderr string) error {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &domain.PipelineError{Stage: c.Index, Tool: c.Stage.Tool, ExitCode: code, Stderr: stderr, Err: err}
}
