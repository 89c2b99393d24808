package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/teamcutter/simple-extract/internal/domain"
	"github.com/teamcutter/simple-extract/internal/resolver"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func report(w io.Writer, outcomes []domain.Outcome) {
	for _, o := range outcomes {
		if o.Succeeded() {
			line := fmt.Sprintf("%s %s %s", green("✓"), bold(o.Input), dim(fmt.Sprintf("(%s)", o.Elapsed.Round(time.Millisecond))))
			if o.Destination != "" {
				line += fmt.Sprintf("\n  %s %s", cyan("path:"), o.Destination)
			}
			fmt.Fprintln(w, line)
			continue
		}

		fmt.Fprintf(w, "%s %s %s: %v\n", red("✗"), bold(o.Input), dim(o.FailedIn.String()), o.Err)
		if hint := hintFor(o.Err); hint != "" {
			fmt.Fprintf(w, "  %s %s\n", yellow("hint:"), hint)
		}
	}
}

func hintFor(err error) string {
	var notFound *domain.ToolNotFoundError
	var clobber *domain.ClobberError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("install %s or map it to another program under [tools] in the config file", notFound.Tool)
	case errors.As(err, &clobber):
		return "drop --no-clobber to overwrite"
	}
	return ""
}

func printFormats(w io.Writer, r *resolver.Resolver) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, spec := range r.Specs() {
		stages := make([]string, len(spec.Stages))
		for i, s := range spec.Stages {
			stages[i] = s.String()
		}
		fmt.Fprintf(tw, "%s\t%s\n", spec.Suffix(), strings.Join(stages, " | "))
	}
	tw.Flush()
}
