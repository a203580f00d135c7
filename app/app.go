// Package app wires the leave service from a config.Config. The HTTP
// server and the CLI both start from here.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/config"
	"github.com/Gonosen60/gestion-conges-app/holiday"
	"github.com/Gonosen60/gestion-conges-app/leave"
	"github.com/Gonosen60/gestion-conges-app/store/memory"
	"github.com/Gonosen60/gestion-conges-app/store/sqlite"
)

// Storage is what a backing store must provide.
type Storage interface {
	leave.Repository
	holiday.Cache
}

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    Storage
	Holidays *holiday.Provider
	Breaks   calendar.SchoolBreaks
	Service  *leave.Service
	Defaults leave.Settings

	closer io.Closer
}

// New builds every component. Call Close when done.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("default settings: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Defaults: defaults}

	switch cfg.Store {
	case config.StoreMemory:
		a.Store = memory.New()
	default:
		db, err := sqlite.New(cfg.DBPath, sqlite.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Store, a.closer = db, db
	}

	var source holiday.Source
	switch cfg.HolidaySource {
	case config.HolidaySourceBuiltin:
		source = holiday.NewBuiltinSource()
	default:
		source = holiday.NewAPISource(cfg.HolidayAPIURL, cfg.HolidayZone, cfg.HolidayTimeout)
	}
	a.Holidays = holiday.NewProvider(source, a.Store, logger)

	a.Breaks = calendar.DefaultSchoolBreaks()
	a.Service = leave.NewService(a.Store, a.Holidays, calendar.NewCounter(a.Breaks), logger)

	logger.Info("application wired",
		"store", cfg.Store, "holiday_source", source.Name(), "reference_year", defaults.ReferenceYear)
	return a, nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
