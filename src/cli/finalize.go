package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newFinalizeCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalize [ROOT]",
		Short: "Mark the current snapshot complete and rotate old snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args, stdout, stderr)
			if err != nil {
				return err
			}
			return a.finalize(getSafetyOptions(cmd), os.Stdin, stdout, time.Now())
		},
	}
	return cmd
}
