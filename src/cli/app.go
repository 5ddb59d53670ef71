package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rsyncsnap/src/config"
	"rsyncsnap/src/logging"
	"rsyncsnap/src/retention"
	"rsyncsnap/src/rsync"
	"rsyncsnap/src/safety"
	"rsyncsnap/src/schedule"
	"rsyncsnap/src/snapname"
	"rsyncsnap/src/snapshot"
)

// app wires the configured components for one backup root. Subcommands and
// the restricted shell dispatcher share the same methods, so a verb behaves
// identically no matter which channel invoked it.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *snapshot.Store
	engine  *retention.Engine
	cadence *schedule.Cadence
	invoker *rsync.Invoker
}

// loadApp builds the app for the given trusted backup root. The root comes
// from the process's own arguments (or the config file), never from the
// remote side.
func loadApp(cmd *cobra.Command, args []string, stdout, stderr io.Writer) (*app, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	root := cfg.Root
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return nil, errors.New("backup root required (positional ROOT or config `root`)")
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	store, err := snapshot.NewStore(root, log)
	if err != nil {
		return nil, err
	}

	cadence, err := schedule.New(cfg.Cadence.Weekly, cfg.Cadence.Monthly, cfg.Cadence.Yearly)
	if err != nil {
		return nil, err
	}

	policy := retention.Policy{
		DailyDays:    cfg.Retention.DailyDays,
		WeeklyMonths: cfg.Retention.WeeklyMonths,
		MonthlyYears: cfg.Retention.MonthlyYears,
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		engine:  retention.New(store, policy, log),
		cadence: cadence,
		invoker: &rsync.Invoker{
			Binary: cfg.Rsync.Binary,
			Flags:  cfg.Rsync.Flags,
			Stdout: stdout,
			Stderr: stderr,
		},
	}, nil
}

// prepare creates the next snapshot directory. kind may be a concrete kind
// or "auto" to let the cadence schedule decide. With resume set, an
// unfinished current snapshot is reused instead.
func (a *app) prepare(kindArg string, resume bool, now time.Time) (snapname.Name, error) {
	if resume {
		if cur, ok, err := a.store.Resume(); err != nil {
			return snapname.Name{}, err
		} else if ok {
			a.log.Info("resuming unfinished snapshot", "name", cur.String())
			return cur, nil
		}
	}
	kind := a.cadence.KindFor(now)
	if kindArg != "" && kindArg != "auto" {
		k, err := snapname.ParseKind(kindArg)
		if err != nil {
			return snapname.Name{}, err
		}
		kind = k
	}
	return a.store.Prepare(kind, now)
}

// transfer runs the rsync receive into the current snapshot, hardlinking
// unchanged files from the previous one.
func (a *app) transfer(ctx context.Context, clientArgs []string) error {
	if _, ok, err := a.store.Current(); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w (run prepare first)", snapshot.ErrNoCurrent)
	}
	linkDest := ""
	if _, ok, err := a.store.Previous(); err != nil {
		return err
	} else if ok {
		linkDest = a.store.PreviousPath()
	}
	return a.invoker.Run(ctx, linkDest, clientArgs, a.store.CurrentPath())
}

// finalize marks the current snapshot complete and rotates. Prune failures
// are reported but do not fail the run; a dry run only prints the plan.
func (a *app) finalize(opts safety.Options, in io.Reader, stdout io.Writer, now time.Time) error {
	if opts.DryRun {
		plan, err := a.engine.Plan(now)
		if err != nil {
			return err
		}
		renderPlan(stdout, plan)
		return nil
	}

	if _, err := a.store.Finalize(); err != nil {
		return err
	}

	plan, err := a.engine.Plan(now)
	if err != nil {
		return err
	}
	if len(plan.Delete) > 0 && !opts.Yes {
		renderPlan(stdout, plan)
		ok, err := safety.Confirm(opts, in, stdout, fmt.Sprintf("Delete %d snapshot(s)?", len(plan.Delete)))
		if err != nil || !ok {
			return err
		}
	}

	res, err := a.engine.Rotate(now)
	var prune *retention.PruneError
	if errors.As(err, &prune) {
		for _, f := range prune.Failures {
			fmt.Fprintf(stdout, "could not delete %s: %v\n", f.Name, f.Err)
		}
	} else if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "rotated: kept %d, deleted %d\n", len(res.Kept), len(res.Deleted))
	return nil
}

// run composes a full backup pass: prepare, transfer, finalize. Each step
// must succeed before the next begins; finalize runs non-interactively.
func (a *app) run(ctx context.Context, kindArg string, resume bool, clientArgs []string, stdout io.Writer, now time.Time) error {
	name, err := a.prepare(kindArg, resume, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "snapshot %s\n", name)
	if err := a.transfer(ctx, clientArgs); err != nil {
		return err
	}
	return a.finalize(safety.Options{Yes: true}, nil, stdout, now)
}

func renderPlan(w io.Writer, plan retention.Plan) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tACTION")
	for _, n := range plan.Keep {
		fmt.Fprintf(tw, "%s\tkeep\n", n)
	}
	for _, n := range plan.Delete {
		fmt.Fprintf(tw, "%s\tdelete\n", n)
	}
	_ = tw.Flush()
}
