// Package dispatch interprets the single command line an inbound restricted
// session supplies (typically via SSH_ORIGINAL_COMMAND under a forced
// command). Only three verbs are reachable; everything else is rejected
// before any side effect. Remote text is never handed to a shell and never
// reinterpreted as flags: residual tokens travel verbatim as argv entries.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// The allow-listed verbs.
const (
	VerbPrepare  = "prepare"
	VerbTransfer = "transfer"
	VerbFinalize = "finalize"
)

var (
	// ErrUnknownVerb rejects any command whose leading token is not in the
	// allow-list. Matching is exact; no prefixes, no substrings.
	ErrUnknownVerb = errors.New("unrecognized command")
	// ErrForbiddenOption rejects transfer options that would re-target the
	// transfer or spawn programs on this host.
	ErrForbiddenOption = errors.New("forbidden transfer option")
)

// Command is one parsed inbound request. Args carries the residual tokens
// verbatim; the dispatcher never interprets them.
type Command struct {
	Verb string
	Args []string
}

// Parse splits the raw inbound line on whitespace and validates its verb.
// Shell metacharacters have no meaning here and stay literal inside tokens.
func Parse(raw string) (Command, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrUnknownVerb)
	}
	switch fields[0] {
	case VerbPrepare, VerbTransfer, VerbFinalize:
		return Command{Verb: fields[0], Args: fields[1:]}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownVerb, fields[0])
}

// forbiddenOptions lists rsync options the restricted channel must never
// forward: anything that re-targets the transfer, runs programs, or mutates
// the client side. Matched against the whole token and its --opt=value form.
var forbiddenOptions = []string{
	"--rsync-path",
	"--rsh",
	"-e",
	"--daemon",
	"--config",
	"--remove-source-files",
}

// shortCluster matches bundled single-dash options such as -aze, which
// rsync unpacks into individual letters.
var shortCluster = regexp.MustCompile(`^-[a-zA-Z]+$`)

// VetTransferArgs rejects forwarded transfer options that appear on the
// forbidden list. Single-dash clusters are scanned letter by letter, since
// rsync reads -ze as -z -e. Everything else passes through untouched and
// uninspected.
func VetTransferArgs(args []string) error {
	for _, a := range args {
		for _, bad := range forbiddenOptions {
			if a == bad || strings.HasPrefix(a, bad+"=") {
				return fmt.Errorf("%w: %q", ErrForbiddenOption, a)
			}
		}
		if shortCluster.MatchString(a) && strings.ContainsRune(a, 'e') {
			return fmt.Errorf("%w: %q bundles -e", ErrForbiddenOption, a)
		}
	}
	return nil
}

// Handler executes one verb against the trusted backup root.
type Handler func(ctx context.Context, args []string) error

// Dispatcher routes one vetted command to its handler. The backup root is
// fixed at construction from the process's own arguments, never from the
// wire.
type Dispatcher struct {
	Prepare  Handler
	Transfer Handler
	Finalize Handler
}

// Dispatch parses raw and invokes exactly one handler. On rejection no
// handler runs and no side effect occurs.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string) error {
	cmd, err := Parse(raw)
	if err != nil {
		return err
	}
	switch cmd.Verb {
	case VerbPrepare:
		return d.Prepare(ctx, cmd.Args)
	case VerbTransfer:
		if err := VetTransferArgs(cmd.Args); err != nil {
			return err
		}
		return d.Transfer(ctx, cmd.Args)
	case VerbFinalize:
		return d.Finalize(ctx, cmd.Args)
	}
	// Parse only returns allow-listed verbs.
	return fmt.Errorf("%w: %q", ErrUnknownVerb, cmd.Verb)
}
