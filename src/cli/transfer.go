package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"rsyncsnap/src/dispatch"
)

func newTransferCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer ROOT [-- RSYNC_ARGS...]",
		Short: "Receive one rsync transfer into the current snapshot",
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
			return a.transfer(ctx, clientArgs)
		},
	}
	return cmd
}
