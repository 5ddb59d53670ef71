package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newPrepareCmd(stdout, stderr io.Writer) *cobra.Command {
	var kind string
	var resume bool
	cmd := &cobra.Command{
		Use:   "prepare [ROOT]",
		Short: "Create the next snapshot directory and update current/previous",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args, stdout, stderr)
			if err != nil {
				return err
			}
			name, err := a.prepare(kind, resume, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "auto", "Snapshot kind: auto|daily|weekly|monthly|yearly")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse an unfinished current snapshot instead of creating a new one")
	return cmd
}
