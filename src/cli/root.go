package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd returns the root cobra command for the rsyncsnap CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rsyncsnap",
		Short:         "Receive rsync backups into hardlinked, rotated snapshot directories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	// Subcommands
	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newPrepareCmd(stdout, stderr))
	cmd.AddCommand(newTransferCmd(stdout, stderr))
	cmd.AddCommand(newFinalizeCmd(stdout, stderr))
	cmd.AddCommand(newRunCmd(stdout, stderr))
	cmd.AddCommand(newShellCmd(stdout, stderr))
	cmd.AddCommand(newListCmd(stdout, stderr))

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
