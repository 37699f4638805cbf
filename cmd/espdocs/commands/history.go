package commands

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/espdocs/internal/eventstore"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `name:"limit" default:"20" help:"Number of runs to show (0 for all)"`
	JSON  bool   `name:"json" help:"Print runs as JSON"`
	Run   string `name:"run" help:"Show the per-job results of one run"`
}

func (h *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	path := cmp.Or(root.HistoryDB, cfg.History.Path)
	if path == "" {
		return ferrors.ConfigError("no run history configured (set --history-db or history.path)").Build()
	}

	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open run history").
			WithContext("path", path).Build()
	}
	defer func() { _ = store.Close() }()

	if h.Run != "" {
		return h.showRun(ctx, g.Out, store)
	}

	runs, err := eventstore.History(ctx, store, h.Limit)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to read run history").Build()
	}

	if h.JSON {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCOMMAND\tSTARTED\tSTATUS\tJOBS\tDURATION\tNEW WARNINGS\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			r.RunID, r.Command, r.StartedAt.Format(time.DateTime), r.Status, r.Jobs,
			r.Duration.Round(time.Millisecond), r.NewWarnings, strings.Join(r.FailedJobs, ","))
	}
	return tw.Flush()
}

func (h *HistoryCmd) showRun(ctx context.Context, out io.Writer, store eventstore.Store) error {
	run, err := eventstore.Run(ctx, store, h.Run)
	if errors.Is(err, eventstore.ErrRunNotFound) {
		return ferrors.NewError(ferrors.CategoryNotFound, "run not found").WithContext("run_id", h.Run).Build()
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to read run history").Build()
	}

	if h.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Fprintf(out, "Run %s (%s): %s, exit code %d\n", run.RunID, run.Command, run.Status, run.ExitCode)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tTARGET\tEXIT CODE\tNEW WARNINGS\tDURATION")
	for _, r := range run.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.Language, r.Target, r.ExitCode, r.NewWarnings, time.Duration(r.DurationMS)*time.Millisecond)
	}
	return tw.Flush()
}
