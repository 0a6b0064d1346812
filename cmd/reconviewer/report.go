package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"reconviewer/internal/model"
	"reconviewer/internal/reportapi"
	"reconviewer/internal/viewer"
)

type pageFlags struct {
	page   int
	column string
}

func (f *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "report page (1-based)")
	cmd.Flags().StringVar(&f.column, "column", model.AllColumns, "column filter")
}

func newReportCmd(a *app) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "report DATE",
		Short: "Print the summary and one page of a date's diff report.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			rep, err := fetchPage(context.Background(), a.client(c, nil), args[0], pf, a.cfg.PageSize)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), rep)
		},
	}
	pf.bind(cmd)
	return cmd
}

func fetchPage(ctx context.Context, client *reportapi.Client, date string, pf pageFlags, pageSize int) (*model.DiffReport, error) {
	if pf.page < 1 {
		return nil, fmt.Errorf("page %d: %w", pf.page, viewer.ErrPageOutOfRange)
	}
	rep, err := client.FetchDiffReport(ctx, model.DiffReportQuery{
		Date:     date,
		Page:     pf.page,
		PageSize: pageSize,
		Column:   pf.column,
	})
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", date, err)
	}
	return rep, nil
}

// renderReport prints the header, summary boxes, the row table and the
// pagination label.
func renderReport(w io.Writer, rep *model.DiffReport) error {
	verdict := "FAIL"
	if rep.TotalDiffs == 0 {
		verdict = "PASS"
	}
	fmt.Fprintf(w, "Report %s  total diffs: %s  [%s]\n\n",
		rep.Query.Date, viewer.GroupInt(rep.TotalDiffs), verdict)

	boxes := viewer.Summarize(rep.Summary, rep.NoDiffSummary, rep.TotalPerTerm, rep.AllColumns)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, box := range boxes {
		fmt.Fprintf(tw, "%s (%s rows)\tDIFF\tMATCH\t\n", box.Term, viewer.GroupInt(box.TotalRows))
		for _, e := range box.Entries {
			mark := "ok"
			if !e.Status {
				mark = "x"
			}
			fmt.Fprintf(tw, "  %s %s\t%s\t%s\t\n", mark, e.Column,
				viewer.GroupInt(e.DiffCount), viewer.GroupInt(e.MatchCount))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if len(rep.Rows) == 0 {
		fmt.Fprintln(w, "No diff rows.")
		return nil
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIME\tTERM\tSTRIKE\tCP\tCOLUMN\tOURS\tPROD\tSYSID\tPREV_SYSID\t")
	for i, r := range rep.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			viewer.RowNumber(rep.Page, rep.Query.PageSize, i),
			r.Time, r.Term, r.Strike, r.Side, r.Column,
			r.Ours.Display(), r.Prod.Display(), optID(r.SysID), optID(r.PrevSysID))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p, err := viewer.Paginate(rep.Page, rep.TotalPages, rep.Total, rep.Query.PageSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", p.Label())
	return nil
}

func optID(p *int64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}
