// Package extractor turns resolved stages into external tool invocations and
// runs them.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/teamcutter/simple-extract/internal/domain"
)

// Output says where a pipeline's final output goes. When the last stage writes
// stdout and Destination is set, that output is written to the Destination
// file; otherwise it goes to Stdout along with the tools' own listings.
type Output struct {
	Stdout      io.Writer
	Destination string
	NoClobber   bool
}

type Extractor struct {
	runner domain.Runner
	logger *slog.Logger
}

func New(runner domain.Runner, logger *slog.Logger) *Extractor {
	return &Extractor{runner: runner, logger: logger}
}

// Execute runs the chains of plan in order. A chain only starts after the
// previous one exited 0; the first failure aborts the rest.
func (e *Extractor) Execute(ctx context.Context, plan *Plan, out Output) (err error) {
	stdout := out.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	for i, chain := range plan.Chains {
		cmds := slices.Clone(chain.Commands)
		final := i == len(plan.Chains)-1

		first := &cmds[0]
		if first.Stage.ReadsStdin {
			in, err := os.Open(chain.Input)
			if err != nil {
				return fmt.Errorf("open %s: %w", chain.Input, err)
			}
			defer in.Close()
			first.Stdin = in
		}

		last := &cmds[len(cmds)-1]
		last.Stdout = stdout
		switch {
		case !last.Stage.WritesStdout:
		case !final:
			f, err := os.Create(chain.Output)
			if err != nil {
				return fmt.Errorf("create intermediate file: %w", err)
			}
			defer os.Remove(chain.Output)
			defer f.Close()
			last.Stdout = f
		case out.Destination != "":
			f, cerr := createDestination(out.Destination, out.NoClobber)
			if cerr != nil {
				return cerr
			}
			defer func() {
				f.Close()
				if err != nil {
					os.Remove(out.Destination)
				}
			}()
			last.Stdout = f
		}

		e.logger.Debug("running chain", "input", chain.Input, "commands", describe(cmds))
		if err = e.runner.Run(ctx, cmds); err != nil {
			return err
		}
	}
	return nil
}

func createDestination(path string, noClobber bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if noClobber {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, &domain.ClobberError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	return f, nil
}

func describe(cmds []domain.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, domain.Stage{Tool: c.Path, Args: c.Args}.String())
	}
	return out
}
