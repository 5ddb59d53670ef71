package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rsyncsnap/src/dispatch"
	"rsyncsnap/src/safety"
)

// newShellCmd is the restricted entry point for inbound SSH sessions. It is
// meant to be pinned in authorized_keys as a forced command:
//
//	command="rsyncsnap shell /srv/backup/host1" ssh-ed25519 AAAA...
//
// The inbound command line arrives via SSH_ORIGINAL_COMMAND; only the three
// allow-listed verbs are reachable, and the backup root is fixed by the
// forced command, never by the remote side.
func newShellCmd(stdout, stderr io.Writer) *cobra.Command {
	var command string
	cmd := &cobra.Command{
		Use:   "shell ROOT",
		Short: "Dispatch one restricted inbound command (forced-command entry)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args, stdout, stderr)
			if err != nil {
				return err
			}

			raw := command
			if raw == "" {
				raw = os.Getenv("SSH_ORIGINAL_COMMAND")
			}

			d := &dispatch.Dispatcher{
				Prepare: func(ctx context.Context, cmdArgs []string) error {
					kind := "auto"
					switch len(cmdArgs) {
					case 0:
					case 1:
						kind = cmdArgs[0]
					default:
						return fmt.Errorf("prepare takes at most one argument")
					}
					name, err := a.prepare(kind, true, time.Now())
					if err != nil {
						return err
					}
					fmt.Fprintln(stdout, name)
					return nil
				},
				Transfer: func(ctx context.Context, cmdArgs []string) error {
					return a.transfer(ctx, cmdArgs)
				},
				Finalize: func(ctx context.Context, cmdArgs []string) error {
					if len(cmdArgs) != 0 {
						return fmt.Errorf("finalize takes no arguments")
					}
					return a.finalize(safety.Options{Yes: true}, nil, stdout, time.Now())
				},
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := d.Dispatch(ctx, raw); err != nil {
				a.log.Error("rejected or failed inbound command", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&command, "command", "", "Inbound command line (default: $SSH_ORIGINAL_COMMAND)")
	return cmd
}
