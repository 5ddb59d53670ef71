// Package safety gates destructive actions, such as pruning snapshots,
// behind a confirmation prompt that dry-run and non-interactive modes can
// bypass.
package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options carries the global destructive-action flags.
type Options struct {
	DryRun bool // show the plan, change nothing
	Yes    bool // assume 'yes', run non-interactively
}

// Confirm asks before a destructive action. Dry-run always declines without
// asking, --yes always confirms without asking, and anything but an explicit
// "y"/"yes" answer (EOF included) declines.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	switch {
	case opts.DryRun:
		return false, nil
	case opts.Yes:
		return true, nil
	}

	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, err
		}
		// EOF before an answer counts as a decline.
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
