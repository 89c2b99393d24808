package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUsage = errors.New("invalid usage")

// UnknownFormatError is returned when no archive suffix matches a filename.
type UnknownFormatError struct {
	Name string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown archive format: %s", e.Name)
}

// ToolNotFoundError is returned before any process starts when a pipeline
// needs a program that is not on PATH.
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("required tool %q not found", e.Tool)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

type FetchErrorKind int

const (
	InvalidURL FetchErrorKind = iota
	NetworkError
	HTTPStatusError
	LengthMismatch
)

func (k FetchErrorKind) String() string {
	switch k {
	case InvalidURL:
		return "invalid url"
	case NetworkError:
		return "network error"
	case HTTPStatusError:
		return "http status"
	case LengthMismatch:
		return "length mismatch"
	}
	return "fetch error"
}

type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Expected   int64
	Written    int64
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case HTTPStatusError:
		return fmt.Sprintf("fetch %s: unexpected status: %d", e.URL, e.StatusCode)
	case LengthMismatch:
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
		}
		return fmt.Sprintf("fetch %s: %s: expected %d bytes, got %d", e.URL, e.Kind, e.Expected, e.Written)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClobberError is returned instead of overwriting an existing destination.
type ClobberError struct {
	Path string
}

func (e *ClobberError) Error() string {
	return fmt.Sprintf("destination %s already exists, not overwriting", e.Path)
}

// PipelineError reports the first stage of a pipeline that did not exit 0.
type PipelineError struct {
	Stage    int
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("stage %d (%s) failed", e.Stage+1, e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("stage %d (%s) exited with code %d", e.Stage+1, e.Tool, e.ExitCode)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *PipelineError) Unwrap() error { return e.Err }
