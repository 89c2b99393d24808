package manager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/teamcutter/simple-extract/internal/domain"
	"github.com/teamcutter/simple-extract/internal/extractor"
	"github.com/teamcutter/simple-extract/internal/fetcher"
	"github.com/teamcutter/simple-extract/internal/resolver"
)

type Options struct {
	OutputDir     string
	ForceDownload bool
	NoClobber     bool
	// Stdout sends the final stage's output to the process stdout instead of
	// a destination file. Only valid with a single input.
	Stdout bool
}

type Manager struct {
	fetcher   domain.Fetcher
	cache     domain.Cache
	resolver  *resolver.Resolver
	builder   *extractor.Builder
	extractor *extractor.Extractor
	stdout    io.Writer
	logger    *slog.Logger
	opts      Options
}

func New(
	fetcher domain.Fetcher,
	cache domain.Cache,
	resolver *resolver.Resolver,
	builder *extractor.Builder,
	extractor *extractor.Extractor,
	stdout io.Writer,
	logger *slog.Logger,
	opts Options,
) *Manager {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	return &Manager{
		fetcher:   fetcher,
		cache:     cache,
		resolver:  resolver,
		builder:   builder,
		extractor: extractor,
		stdout:    stdout,
		logger:    logger,
		opts:      opts,
	}
}

// Run extracts every input in order. A failed input never stops the ones
// after it; the returned outcomes line up with inputs.
func (m *Manager) Run(ctx context.Context, inputs []string) ([]domain.Outcome, error) {
	if m.opts.Stdout && len(inputs) != 1 {
		return nil, fmt.Errorf("%w: stdout mode needs exactly one input, got %d", domain.ErrUsage, len(inputs))
	}

	outcomes := make([]domain.Outcome, 0, len(inputs))
	for _, input := range inputs {
		outcomes = append(outcomes, m.Extract(ctx, input))
	}
	return outcomes, nil
}

// Extract drives one input through
// Pending -> (Fetching) -> Resolving -> Executing -> Succeeded | Failed.
func (m *Manager) Extract(ctx context.Context, input string) domain.Outcome {
	start := time.Now()
	out := domain.Outcome{Input: input, State: domain.Pending}
	target := domain.Target{Input: input, LocalPath: input, Remote: domain.IsURL(input)}

	fail := func(err error) domain.Outcome {
		out.FailedIn = out.State
		out.State = domain.Failed
		out.Err = err
		out.Elapsed = time.Since(start)
		m.logger.Debug("extraction failed", "input", input, "state", out.FailedIn, "error", err)
		return out
	}

	if target.Remote {
		m.enter(&out, domain.Fetching)
		path, err := m.fetch(ctx, input)
		if err != nil {
			return fail(err)
		}
		target.LocalPath = path
	}
	out.LocalPath = target.LocalPath

	m.enter(&out, domain.Resolving)
	stages, err := m.resolver.Resolve(target.LocalPath)
	if err != nil {
		return fail(err)
	}
	target.Stages = stages
	if target.Destination, err = m.resolver.Destination(target.LocalPath, m.opts.OutputDir); err != nil {
		return fail(err)
	}
	out.Destination = target.Destination

	if info, err := os.Stat(target.LocalPath); err != nil {
		return fail(fmt.Errorf("read archive: %w", err))
	} else if info.IsDir() {
		return fail(fmt.Errorf("archive %s is a directory", target.LocalPath))
	}

	m.enter(&out, domain.Executing)
	if err := m.execute(ctx, target); err != nil {
		return fail(err)
	}

	out.State = domain.Succeeded
	out.Elapsed = time.Since(start)
	m.logger.Debug("extracted archive", "input", input, "destination", out.Destination, "elapsed", out.Elapsed.Round(time.Millisecond))
	return out
}

func (m *Manager) enter(out *domain.Outcome, state domain.State) {
	m.logger.Debug("state change", "input", out.Input, "from", out.State, "to", state)
	out.State = state
}

// fetch returns the local path of rawURL, downloading it unless a previous
// copy may be reused.
func (m *Manager) fetch(ctx context.Context, rawURL string) (string, error) {
	name, err := fetcher.LocalName(rawURL)
	if err != nil {
		return "", err
	}
	localPath := m.cache.GetPath(name)

	if m.fetcher.ShouldFetch(rawURL, localPath, m.opts.ForceDownload) == domain.Skip {
		m.logger.Debug("archive already downloaded, skipping fetch", "url", rawURL, "path", localPath)
		return localPath, nil
	}
	if m.opts.NoClobber && m.cache.Has(name) {
		return "", &domain.ClobberError{Path: localPath}
	}

	result := m.fetcher.Fetch(ctx, rawURL)
	if result.Error != nil {
		return "", result.Error
	}
	m.logger.Debug("storing download", "url", rawURL, "path", localPath, "size", humanize.Bytes(uint64(result.Size)))
	return m.cache.Store(name, result.Path)
}

func (m *Manager) execute(ctx context.Context, target domain.Target) error {
	output := extractor.Output{Stdout: m.stdout, NoClobber: m.opts.NoClobber}
	if !m.opts.Stdout {
		if m.opts.NoClobber {
			if _, err := os.Lstat(target.Destination); err == nil {
				return &domain.ClobberError{Path: target.Destination}
			}
		}
		if err := os.MkdirAll(m.opts.OutputDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		output.Destination = target.Destination
	}

	plan, err := m.builder.Plan(target.Stages, target.LocalPath, m.opts.OutputDir)
	if err != nil {
		return err
	}
	return m.extractor.Execute(ctx, plan, output)
}
