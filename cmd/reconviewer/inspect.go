package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reconviewer/internal/model"
	"reconviewer/internal/viewer"
)

type overrideFlags struct {
	currStart, currEnd, prevStart, prevEnd int64
}

func (f *overrideFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.currStart, "curr-start", 0, "override current interval start (exclusive)")
	cmd.Flags().Int64Var(&f.currEnd, "curr-end", 0, "override current interval end (inclusive)")
	cmd.Flags().Int64Var(&f.prevStart, "prev-start", 0, "override previous interval start (exclusive)")
	cmd.Flags().Int64Var(&f.prevEnd, "prev-end", 0, "override previous interval end (inclusive)")
}

// override keeps only the bounds the user actually set.
func (f *overrideFlags) override(cmd *cobra.Command) viewer.ManualOverride {
	var o viewer.ManualOverride
	set := func(name string, v int64) *int64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	o.CurrStart = set("curr-start", f.currStart)
	o.CurrEnd = set("curr-end", f.currEnd)
	o.PrevStart = set("prev-start", f.prevStart)
	o.PrevEnd = set("prev-end", f.prevEnd)
	return o
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		pf pageFlags
		of overrideFlags
	)
	cmd := &cobra.Command{
		Use:   "inspect DATE ROW",
		Short: "Show the Ours/PROD comparison and tick evidence for one diff row.",
		Long: `inspect loads one page of DATE's report, picks the ROW-th row of that page
(0-based) and fetches its prod_row comparison and tick intervals in parallel.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index int
			if _, err := fmt.Sscan(args[1], &index); err != nil {
				return fmt.Errorf("row index %q: %w", args[1], err)
			}
			o := of.override(cmd)

			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()
			client := a.client(c, nil)

			ctx := context.Background()
			rep, err := fetchPage(ctx, client, args[0], pf, a.cfg.PageSize)
			if err != nil {
				return err
			}
			if index < 0 || index >= len(rep.Rows) {
				return fmt.Errorf("row %d of %d: %w", index, len(rep.Rows), viewer.ErrRowOutOfRange)
			}
			row := rep.Rows[index]

			cur, prev, err := viewer.ResolveWindows(row, o)
			if err != nil {
				return err
			}

			// Each fetch fails on its own: a comparison error must not hide
			// the tick evidence, and the reverse.
			var (
				cmp             *model.CompareResult
				ticks           *model.TickResult
				cmpErr, tickErr error
				g               errgroup.Group
			)
			g.Go(func() error {
				cmp, cmpErr = client.FetchCompare(ctx, viewer.CompareQueryFor(row))
				return nil
			})
			g.Go(func() error {
				ticks, tickErr = client.FetchTicks(ctx, viewer.TickQueryFor(row, o))
				return nil
			})
			g.Wait()

			out := cmd.OutOrStdout()
			renderRowHeader(out, row)
			if cmpErr != nil {
				fmt.Fprintf(out, "comparison failed: %v\n", cmpErr)
			} else if err := renderCompare(out, viewer.BuildCompareRecord(cmp, row.Column)); err != nil {
				return err
			}

			if tickErr != nil {
				fmt.Fprintf(out, "\nticks %s / %s failed: %v\n", cur, prev, tickErr)
			} else {
				fmt.Fprintf(out, "\nprod_id: %s\n", ticks.ProdID)
				if err := renderTicks(out, viewer.NewTickInterval(cur, ticks.Current)); err != nil {
					return err
				}
				if err := renderTicks(out, viewer.NewTickInterval(prev, ticks.Previous)); err != nil {
					return err
				}
			}

			if cmpErr != nil && tickErr != nil {
				return fmt.Errorf("row %d: comparison and ticks unavailable", index)
			}
			return nil
		},
	}
	pf.bind(cmd)
	of.bind(cmd)
	return cmd
}

func renderRowHeader(w io.Writer, row model.DiffRow) {
	fmt.Fprintf(w, "%s %s %s %s %s  column %s\n\n",
		row.Date, row.Time, row.Term, row.Strike, row.Side, row.Column)
}

func renderCompare(w io.Writer, rec viewer.CompareRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tOURS\tPROD\t\t")
	for _, f := range rec.Fields {
		mark := ""
		switch f.Style {
		case viewer.StyleTarget:
			mark = "<< target"
		case viewer.StyleDiff:
			mark = "<< diff"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", f.Name, f.Ours.Display(), f.Prod.Display(), mark)
	}
	return tw.Flush()
}

func renderTicks(w io.Writer, ti viewer.TickInterval) error {
	fmt.Fprintf(w, "\n%s  %d ticks\n", ti.Label, ti.Count)
	if len(ti.Ticks) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQNO\tTIME\tBID\tASK\t")
	for _, t := range ti.Ticks {
		fmt.Fprintf(tw, "%d\t%s\t%g\t%g\t\n", t.SeqNo, t.TimeDisplay, t.Bid, t.Ask)
	}
	return tw.Flush()
}
