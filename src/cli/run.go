package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"rsyncsnap/src/dispatch"
)

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var kind string
	var resume bool
	cmd := &cobra.Command{
		Use:   "run ROOT [-- RSYNC_ARGS...]",
		Short: "Run a full backup pass: prepare, transfer, finalize",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args, stdout, stderr)
			if err != nil {
				return err
			}
			clientArgs := args[1:]
			if err := dispatch.VetTransferArgs(clientArgs); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.run(ctx, kind, resume, clientArgs, stdout, time.Now())
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "auto", "Snapshot kind: auto|daily|weekly|monthly|yearly")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse an unfinished current snapshot instead of creating a new one")
	return cmd
}
