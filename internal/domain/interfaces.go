package domain

import (
	"context"
)

type Fetcher interface {
	ShouldFetch(rawURL, localPath string, force bool) FetchDecision
	Fetch(ctx context.Context, rawURL string) FetchResult
}

type Cache interface {
	Has(name string) bool
	GetPath(name string) string
	Store(name, src string) (string, error)
}

// Runner starts external programs. Run executes one chain of commands whose
// stdout/stdin are connected in order, and returns once every command exited.
type Runner interface {
	LookPath(tool string) (string, error)
	Run(ctx context.Context, chain []Command) error
}
