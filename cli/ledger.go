package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Gonosen60/gestion-conges-app/app"
	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count START END",
		Short: "Count the working days of a range without recording it",
		Example: `  conges count 2025-11-10 2025-11-14
  conges count 10/11/2025 14/11/2025`,
		Args: cobra.ExactArgs(2),
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			p, err := parseRange(args[0], args[1])
			if err != nil {
				return err
			}
			res, err := a.Service.Preview(cmd.Context(), p)
			if err != nil {
				return err
			}
			printCount(cmd.OutOrStdout(), res)
			return nil
		}),
	}
}

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add CATEGORY START END",
		Short: "Record a leave request (CA, RTT, RC, FRAC, CET, RTTI)",
		Example: `  conges add CA 2025-11-10 2025-11-14
  conges add rtt 02/06/2025 02/06/2025`,
		Args: cobra.ExactArgs(3),
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			category, err := leave.ParseCategory(args[0])
			if err != nil {
				return err
			}
			p, err := parseRange(args[1], args[2])
			if err != nil {
				return err
			}
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}

			res, err := a.Service.Submit(ctx, sess.ID, leave.Request{Category: category, Start: p.Start, End: p.End})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Created {
				fmt.Fprintf(out, "Nothing to charge from %s to %s: weekends and holidays only.\n", p.Start.French(), p.End.French())
				return nil
			}
			fmt.Fprintf(out, "Recorded %s from %s to %s: %d day(s).\n",
				res.Record.Category, res.Record.Start.French(), res.Record.End.French(), res.Record.ChargedDays)
			return nil
		}),
	}
}

func newListCmd(opts *options) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded leave",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}
			records, err := a.Service.Records(ctx, sess.ID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No leave recorded.")
				return nil
			}

			positions := make(map[string]int, len(records))
			for i, r := range records {
				positions[r.ID] = i
			}
			if history {
				records = leave.NewLedger(records...).History()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tTYPE\tSTART\tEND\tDAYS")
			for _, r := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", positions[r.ID], r.Category, r.Start.French(), r.End.French(), r.ChargedDays)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&history, "history", false, "Newest first instead of entry order")
	return cmd
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove INDEX",
		Short: "Remove the record at INDEX (as shown by list)",
		Args:  cobra.ExactArgs(1),
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}
			removed, err := a.Service.RemoveRecord(ctx, sess.ID, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s to %s (%d day(s)).\n",
				removed.Category, removed.Start.French(), removed.End.French(), removed.ChargedDays)
			return nil
		}),
	}
}

func newResetCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record of the session (settings are kept)",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			if !yes {
				return fmt.Errorf("reset erases the whole ledger of session %q: pass --yes to confirm", opts.session)
			}
			ctx := cmd.Context()
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}
			if err := a.Service.Reset(ctx, sess.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ledger cleared.")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func parseRange(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.Period{Start: s, End: e}, nil
}

func printCount(w io.Writer, res calendar.CountResult) {
	fmt.Fprintf(w, "%s to %s: %d working day(s) out of %d\n",
		res.Period.Start.French(), res.Period.End.French(), res.Chargeable, res.Period.Len())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range res.Days {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", d.Date.Weekday().String()[:3], d.Date.French(), d.Label(), d.HolidayName)
	}
	tw.Flush()
}
