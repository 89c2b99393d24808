package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teamcutter/simple-extract/internal/domain"
)

// Chain is a run of stages connected stdout to stdin. Input feeds the first
// stage (as a placeholder argument or on stdin); Output, when set, is an
// intermediate file receiving the last stage's stdout.
type Chain struct {
	Commands []domain.Command
	Input    string
	Output   string
}

type Plan struct {
	Input     string
	OutputDir string
	Chains    []Chain
}

type Builder struct {
	runner domain.Runner
	tools  map[string]string
}

// NewBuilder returns a builder resolving programs through runner. tools maps a
// stage tool name to the program actually run, e.g. "7z" to "7zz".
func NewBuilder(runner domain.Runner, tools map[string]string) *Builder {
	return &Builder{runner: runner, tools: tools}
}

func (b *Builder) program(tool string) string {
	if alias := b.tools[tool]; alias != "" {
		return alias
	}
	return tool
}

func (b *Builder) lookup(tool string) (string, error) {
	prog := b.program(tool)
	path, err := b.runner.LookPath(prog)
	if err != nil {
		return "", &domain.ToolNotFoundError{Tool: prog, Err: err}
	}
	return path, nil
}

// Build binds a single stage to its program with inputPath and outputDir
// substituted into the argument template.
func (b *Builder) Build(stage domain.Stage, inputPath, outputDir string) (domain.Command, error) {
	path, err := b.lookup(stage.Tool)
	if err != nil {
		return domain.Command{}, err
	}
	return bind(stage, path, inputPath, outputDir), nil
}

// Plan resolves every tool of the pipeline before returning, so a missing
// program is reported before anything runs, then groups the stages into chains.
func (b *Builder) Plan(stages []domain.Stage, inputPath, outputDir string) (*Plan, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages to run for %s", inputPath)
	}

	input, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	dir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	paths := make([]string, len(stages))
	for i, s := range stages {
		if paths[i], err = b.lookup(s.Tool); err != nil {
			return nil, err
		}
	}

	plan := &Plan{Input: input, OutputDir: dir}
	current := Chain{Input: input}
	for i, s := range stages {
		if i > 0 && !(s.ReadsStdin && stages[i-1].WritesStdout) {
			if stages[i-1].WritesStdout {
				current.Output = intermediate(dir, input, len(plan.Chains))
			}
			plan.Chains = append(plan.Chains, current)
			next := input
			if current.Output != "" {
				next = current.Output
			}
			current = Chain{Input: next}
		}
		cmd := bind(s, paths[i], current.Input, dir)
		cmd.Index = i
		current.Commands = append(current.Commands, cmd)
	}
	plan.Chains = append(plan.Chains, current)
	return plan, nil
}

func intermediate(dir, input string, n int) string {
	return filepath.Join(dir, fmt.Sprintf(".%s.stage%d", filepath.Base(input), n+1))
}

func bind(stage domain.Stage, path, input, outputDir string) domain.Command {
	args := make([]string, len(stage.Args))
	for i, a := range stage.Args {
		a = strings.ReplaceAll(a, domain.InputPlaceholder, input)
		args[i] = strings.ReplaceAll(a, domain.OutputPlaceholder, outputDir)
	}
	return domain.Command{Stage: stage, Path: path, Args: args, Dir: outputDir}
}
