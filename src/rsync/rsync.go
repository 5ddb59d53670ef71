// Package rsync wraps the system rsync binary for one server-side receive.
// The wrapper only assembles argument arrays and execs directly; no string
// ever reaches a shell.
package rsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Invoker runs the transfer subprocess. The zero value resolves the binary
// from PATH on first use.
type Invoker struct {
	Binary string   // path to rsync; resolved via Detect when empty
	Flags  []string // fixed flags prepended to every invocation
	Stdout io.Writer
	Stderr io.Writer
}

// BuildArgs assembles the argument vector for one receive: the fixed flags,
// the hardlink source when a previous snapshot exists, the vetted client
// arguments verbatim, then the destination directory.
func BuildArgs(fixed []string, linkDest string, clientArgs []string, dest string) []string {
	args := make([]string, 0, len(fixed)+len(clientArgs)+2)
	args = append(args, fixed...)
	if linkDest != "" {
		args = append(args, "--link-dest="+linkDest)
	}
	args = append(args, clientArgs...)
	args = append(args, dest)
	return args
}

// Run launches the transfer and waits for it. The subprocess exit status is
// propagated unchanged via the wrapped error.
func (inv *Invoker) Run(ctx context.Context, linkDest string, clientArgs []string, dest string) error {
	bin := inv.Binary
	if bin == "" {
		info, err := Detect(ctx)
		if err != nil {
			return err
		}
		bin = info.Path
	}
	args := BuildArgs(inv.Flags, linkDest, clientArgs, dest)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rsync: transfer failed: %w", err)
	}
	return nil
}

// ExitCode extracts the subprocess exit status from a Run error, or -1 when
// the error did not come from a finished subprocess.
func ExitCode(err error) int {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}
