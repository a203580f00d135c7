// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
	"github.com/Gonosen60/gestion-conges-app/logging"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	HolidaySourceAPI     = "api"
	HolidaySourceBuiltin = "builtin"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Storage
	Store  string
	DBPath string

	// Holidays
	HolidaySource  string
	HolidayAPIURL  string
	HolidayZone    string
	HolidayTimeout time.Duration

	// Leave defaults for new sessions
	ReferenceYear int
	Granted       map[leave.Category]string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the environment. Variables already set win over the .env
// files; with no argument ./.env is tried and a missing file is ignored.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		Store:  getEnv("STORE", StoreSQLite),
		DBPath: getEnv("DB_PATH", "./data/conges.db"),

		HolidaySource:  getEnv("HOLIDAY_SOURCE", HolidaySourceAPI),
		HolidayAPIURL:  getEnv("HOLIDAY_API_URL", "https://calendrier.api.gouv.fr/jours-feries"),
		HolidayZone:    getEnv("HOLIDAY_ZONE", "metropole"),
		HolidayTimeout: getEnvDuration("HOLIDAY_TIMEOUT", 5*time.Second),

		ReferenceYear: getEnvInt("REFERENCE_YEAR", time.Now().Year()),
		Granted: map[leave.Category]string{
			leave.CategoryAnnualLeave:    getEnv("GRANTED_CA", "25"),
			leave.CategoryRTT:            getEnv("GRANTED_RTT", "15"),
			leave.CategorySeniorityLeave: getEnv("GRANTED_RC", "0"),
			leave.CategoryTimeSavings:    getEnv("GRANTED_CET", "0"),
			leave.CategoryRTTI:           getEnv("GRANTED_RTTI", "0"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Entitlements parses the granted days.
func (c *Config) Entitlements() (leave.Entitlements, error) {
	ents := make(leave.Entitlements, len(c.Granted))
	for cat, raw := range c.Granted {
		a, err := generic.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("granted %s %q: %w", cat, raw, err)
		}
		ents[cat] = a
	}
	return ents, ents.Validate()
}

// Settings are the defaults applied to new sessions.
func (c *Config) Settings() (leave.Settings, error) {
	ents, err := c.Entitlements()
	if err != nil {
		return leave.Settings{}, err
	}
	return leave.Settings{ReferenceYear: c.ReferenceYear, Entitlements: ents}, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.DBPath == "" {
			errors = append(errors, "database path cannot be empty when using sqlite store")
		} else if c.DBPath != ":memory:" {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid store '%s': must be one of [%s %s]", c.Store, StoreSQLite, StoreMemory))
	}

	switch c.HolidaySource {
	case HolidaySourceBuiltin:
	case HolidaySourceAPI:
		if u, err := url.Parse(c.HolidayAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid holiday API URL '%s': must be an http(s) URL", c.HolidayAPIURL))
		}
		if c.HolidayZone == "" {
			errors = append(errors, "holiday zone cannot be empty when using the holiday API")
		}
		if c.HolidayTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid holiday timeout %v: must be positive", c.HolidayTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid holiday source '%s': must be one of [%s %s]", c.HolidaySource, HolidaySourceAPI, HolidaySourceBuiltin))
	}

	if c.ReferenceYear < leave.MinReferenceYear || c.ReferenceYear > leave.MaxReferenceYear {
		errors = append(errors, fmt.Sprintf("invalid reference year %d: must be between %d and %d",
			c.ReferenceYear, leave.MinReferenceYear, leave.MaxReferenceYear))
	}
	if _, err := c.Entitlements(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid entitlements: %v", err))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
