package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Gonosen60/gestion-conges-app/app"
)

func newHolidaysCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays [YEAR]",
		Short: "List public holidays (default: the configured reference year)",
		Args:  cobra.MaximumNArgs(1),
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			year := a.Defaults.ReferenceYear
			if len(args) == 1 {
				y, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid year %q: %w", args[0], err)
				}
				year = y
			}

			set := a.Holidays.Fetch(cmd.Context(), year)
			out := cmd.OutOrStdout()
			if set.Len() == 0 {
				fmt.Fprintf(out, "No holidays known for %d (lookup failed or empty).\n", year)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, d := range set.Dates() {
				name, _ := set.Name(d)
				fmt.Fprintf(tw, "%s\t%s\n", d.French(), name)
			}
			return tw.Flush()
		}),
	}
}

func newBreaksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "breaks",
		Short: "List the school breaks used to annotate counts",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, b := range a.Breaks {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Label, b.Period.Start.French(), b.Period.End.French())
			}
			return tw.Flush()
		}),
	}
}
