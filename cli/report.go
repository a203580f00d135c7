package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Gonosen60/gestion-conges-app/app"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show balances per category and the split-leave bonus",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}
			sum, err := a.Service.Summary(ctx, sess.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reference year %d (valid %s to %s)\n\n",
				sum.ReferenceYear, sum.Window.Start.French(), sum.Window.End.French())

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "TYPE\tGRANTED\tTAKEN\tREMAINING\t")
			for _, b := range sum.Balances {
				flag := ""
				if b.Overdrawn() {
					flag = " !"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%s\t\n", b.Category, b.Granted, b.Taken, b.Remaining, flag)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			season := leave.HighSeason(sum.ReferenceYear)
			fmt.Fprintf(out, "\nSplit-leave bonus: %d day(s) (%d CA day(s) outside %s-%s)\n",
				sum.SplitLeaveBonus, sum.DaysOutsideHighSeason, season.Start.French(), season.End.French())
			for _, id := range sum.Skipped {
				fmt.Fprintf(out, "warning: record %s has malformed dates and was ignored\n", id)
			}
			for _, st := range sum.Stale {
				fmt.Fprintf(out, "note: record %s charges %d day(s), current holidays give %d\n", st.ID, st.Stored, st.Recounted)
			}
			return nil
		}),
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var dates, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			style, err := leave.ParseDateStyle(dates)
			if err != nil {
				return err
			}
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return a.Service.Export(ctx, sess.ID, cmd.OutOrStdout(), style)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := a.Service.Export(ctx, sess.ID, f, style); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dates, "dates", "iso", "Date format: iso or fr")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
