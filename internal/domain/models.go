package domain

import (
	"io"
	"strings"
	"time"
)

// Placeholders substituted into stage argument templates.
const (
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"
)

// Stage is one external tool invocation within an extraction pipeline.
type Stage struct {
	Tool         string
	Args         []string
	ReadsStdin   bool
	WritesStdout bool
}

func (s Stage) String() string {
	return strings.Join(append([]string{s.Tool}, s.Args...), " ")
}

// ArchiveSpec maps one recognized suffix family to its pipeline.
type ArchiveSpec struct {
	Name     string
	Suffixes []string
	Stages   []Stage
}

// Suffix is the full filename suffix, e.g. ".tar.gz".
func (a ArchiveSpec) Suffix() string {
	return strings.Join(a.Suffixes, "")
}

// Target is a single CLI argument resolved for extraction.
type Target struct {
	Input       string
	LocalPath   string
	Stages      []Stage
	Remote      bool
	Destination string
}

// Command is a stage bound to a concrete program, arguments and directory.
type Command struct {
	Index  int
	Stage  Stage
	Path   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
}

type FetchDecision int

const (
	Fetch FetchDecision = iota
	Skip
)

func (d FetchDecision) String() string {
	if d == Skip {
		return "skip"
	}
	return "fetch"
}

type FetchResult struct {
	URL   string
	Path  string
	Size  int64
	Error error
}

// State is a step of the per-input extraction state machine.
type State int

const (
	Pending State = iota
	Fetching
	Resolving
	Executing
	Succeeded
	Failed
)

var stateNames = [...]string{"pending", "fetching", "resolving", "executing", "succeeded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Outcome records the terminal state of one input.
type Outcome struct {
	Input       string
	State       State
	FailedIn    State
	LocalPath   string
	Destination string
	Err         error
	Elapsed     time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.State == Succeeded
}

// CountFailed returns how many outcomes ended in Failed.
func CountFailed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.State == Failed {
			n++
		}
	}
	return n
}
