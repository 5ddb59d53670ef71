package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type listEntry struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Complete  bool      `json:"complete"`
	Ref       string    `json:"ref,omitempty"` // current, previous, or empty
}

func newListCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list [ROOT]",
		Short: "List snapshots under the backup root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args, stdout, stderr)
			if err != nil {
				return err
			}
			names, err := a.store.List()
			if err != nil {
				return err
			}
			cur, hasCur, err := a.store.Current()
			if err != nil {
				return err
			}
			prev, hasPrev, err := a.store.Previous()
			if err != nil {
				return err
			}

			entries := make([]listEntry, 0, len(names))
			for _, n := range names {
				e := listEntry{
					Name:      n.String(),
					Kind:      string(n.Kind),
					Timestamp: n.Stamp,
					Complete:  a.store.IsComplete(n),
				}
				switch {
				case hasCur && n == cur:
					e.Ref = "current"
				case hasPrev && n == prev:
					e.Ref = "previous"
				}
				entries = append(entries, e)
			}

			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "table", "":
				tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tKIND\tTIMESTAMP\tCOMPLETE\tREF")
				for _, e := range entries {
					complete := "yes"
					if !e.Complete {
						complete = "no"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						e.Name, e.Kind, e.Timestamp.Format(time.RFC3339), complete, e.Ref)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}
