package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Gonosen60/gestion-conges-app/app"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

func newSettingsCmd(opts *options) *cobra.Command {
	var (
		reference int
		granted   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the reference year and granted days",
		Example: `  conges settings
  conges settings --reference-year 2026
  conges settings --granted CA=27,CET=3.5`,
		Args: cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			sess, err := opts.openSession(ctx, a)
			if err != nil {
				return err
			}

			if reference != 0 || len(granted) > 0 {
				settings := leave.Settings{
					ReferenceYear: sess.Settings.ReferenceYear,
					Entitlements:  sess.Settings.Entitlements.Clone(),
				}
				if reference != 0 {
					settings.ReferenceYear = reference
				}
				for code, raw := range granted {
					c, err := leave.ParseCategory(code)
					if err != nil {
						return err
					}
					days, err := generic.ParseAmount(raw)
					if err != nil {
						return fmt.Errorf("granted %s: %w", code, err)
					}
					settings.Entitlements[c] = days
				}
				if sess, err = a.Service.UpdateSettings(ctx, sess.ID, settings); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			window := leave.ValidityWindow(sess.Settings.ReferenceYear)
			fmt.Fprintf(out, "Session %s\n", sess.ID)
			fmt.Fprintf(out, "Reference year %d (valid %s to %s)\n", sess.Settings.ReferenceYear, window.Start.French(), window.End.French())

			codes := make([]string, 0, len(sess.Settings.Entitlements))
			for c := range sess.Settings.Entitlements {
				codes = append(codes, string(c))
			}
			sort.Strings(codes)
			for _, code := range codes {
				c := leave.Category(code)
				fmt.Fprintf(out, "  %-5s %s\n", c, sess.Settings.Entitlements.Granted(c))
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&reference, "reference-year", 0, "New reference year")
	cmd.Flags().StringToStringVar(&granted, "granted", nil, "Granted days per category, e.g. CA=25,RTT=15")
	return cmd
}
