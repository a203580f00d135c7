// Package cli is the conges command line. Every command wires the same
// service as the HTTP server from config.Load and works on one named
// session (--session, "default" unless set).
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Gonosen60/gestion-conges-app/app"
	"github.com/Gonosen60/gestion-conges-app/config"
	"github.com/Gonosen60/gestion-conges-app/leave"
	"github.com/Gonosen60/gestion-conges-app/logging"
)

// options holds the persistent flags shared by all commands.
type options struct {
	envFile  string
	store    string
	dbPath   string
	holidays string
	year     int
	session  string
	verbose  bool
}

// NewRootCommand builds the command tree. Each call returns a fresh tree,
// so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "conges",
		Short: "Leave balance tracker for French working-time rules",
		Long: `conges records leave requests, counts working days against French
public holidays, and reports balances including the split-leave bonus
(jours de fractionnement).

Data lives in the store configured by STORE and DB_PATH (see .env).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env", ".env", "Environment file to load")
	pf.StringVar(&opts.store, "store", "", "Store backend: sqlite or memory (overrides STORE)")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	pf.StringVar(&opts.holidays, "holidays", "", "Holiday source: api or builtin (overrides HOLIDAY_SOURCE)")
	pf.IntVar(&opts.year, "year", 0, "Reference year for a new session (overrides REFERENCE_YEAR)")
	pf.StringVarP(&opts.session, "session", "s", "default", "Session name")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")

	root.AddCommand(
		newServeCmd(opts),
		newCountCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newRemoveCmd(opts),
		newResetCmd(opts),
		newSummaryCmd(opts),
		newExportCmd(opts),
		newSettingsCmd(opts),
		newHolidaysCmd(opts),
		newBreaksCmd(opts),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the environment and applies flag overrides.
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.Load(o.envFile)
	if o.store != "" {
		cfg.Store = o.store
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.holidays != "" {
		cfg.HolidaySource = o.holidays
	}
	if o.year != 0 {
		cfg.ReferenceYear = o.year
	}
	if !o.verbose && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run wraps a command body with application setup and teardown.
func (o *options) run(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := o.loadConfig()
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// openSession returns the selected session, creating it with the
// configured defaults on first use.
func (o *options) openSession(ctx context.Context, a *app.App) (leave.Session, error) {
	return a.Service.OpenSession(ctx, o.session, a.Defaults)
}
