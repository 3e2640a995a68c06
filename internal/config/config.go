// Package config loads the application settings from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/scale"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

// Favorites backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// EnvPrefix is the prefix for environment overrides (ARKTECHER_DATABASE_PATH).
const EnvPrefix = "ARKTECHER"

// Config is the typed view of the loaded settings.
type Config struct {
	Database  DatabaseConfig
	Favorites FavoritesConfig
	Catalog   CatalogConfig
	Capture   CaptureConfig
	Server    ServerConfig
	Logging   LoggingConfig
	Scale     scale.Defaults
	Workflow  WorkflowConfig
	Recommend recommend.Config
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// FavoritesConfig selects where favorites persist.
type FavoritesConfig struct {
	Backend      string
	BadgerPath   string
	PollInterval time.Duration
}

// CatalogConfig points at an artwork catalog. Empty uses the bundled one.
type CatalogConfig struct {
	Path string
}

// CaptureConfig configures the capture device.
type CaptureConfig struct {
	Device     string
	FormFactor capture.FormFactor
}

// ServerConfig configures the HTTP surfaces.
type ServerConfig struct {
	Addr string
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// WorkflowConfig holds the simulated latencies.
type WorkflowConfig struct {
	AnalysisDuration  time.Duration
	ReproposeDuration time.Duration
}

// DefaultDataDir returns ~/.local/share/arktecher.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "arktecher")
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	dataDir := DefaultDataDir()
	stock := scale.DefaultDefaults()

	v.SetDefault("database.path", filepath.Join(dataDir, "arktecher.db"))
	v.SetDefault("favorites.backend", BackendSQLite)
	v.SetDefault("favorites.badger_path", filepath.Join(dataDir, "favorites"))
	v.SetDefault("favorites.poll_interval", "5s")
	v.SetDefault("catalog.path", "")
	v.SetDefault("capture.device", "")
	v.SetDefault("capture.form_factor", string(capture.FormFactorDesktop))
	v.SetDefault("scale.default_wall_width_cm", stock.WallWidthCm)
	v.SetDefault("scale.default_wall_height_cm", stock.WallHeightCm)
	v.SetDefault("workflow.analysis_duration", workflow.DefaultAnalysisDuration.String())
	v.SetDefault("workflow.repropose_duration", workflow.DefaultReproposeDuration.String())
	v.SetDefault("recommend.candidate_count", recommend.DefaultCandidateCount)
	v.SetDefault("recommend.seed", 0)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load builds a Config from the global viper instance.
func Load() (*Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper builds a Config from v. Defaults are registered on v first, so
// keys missing from every source fall back to them.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{Path: ExpandPath(v.GetString("database.path"))},
		Favorites: FavoritesConfig{
			Backend:      strings.ToLower(strings.TrimSpace(v.GetString("favorites.backend"))),
			BadgerPath:   ExpandPath(v.GetString("favorites.badger_path")),
			PollInterval: v.GetDuration("favorites.poll_interval"),
		},
		Catalog: CatalogConfig{Path: ExpandPath(v.GetString("catalog.path"))},
		Capture: CaptureConfig{
			Device:     ExpandPath(v.GetString("capture.device")),
			FormFactor: capture.ParseFormFactor(v.GetString("capture.form_factor")),
		},
		Server:  ServerConfig{Addr: v.GetString("server.addr")},
		Logging: LoggingConfig{Level: v.GetString("logging.level"), Format: v.GetString("logging.format")},
		Scale: scale.Defaults{
			WallWidthCm:  v.GetFloat64("scale.default_wall_width_cm"),
			WallHeightCm: v.GetFloat64("scale.default_wall_height_cm"),
		},
		Workflow: WorkflowConfig{
			AnalysisDuration:  v.GetDuration("workflow.analysis_duration"),
			ReproposeDuration: v.GetDuration("workflow.repropose_duration"),
		},
		Recommend: recommend.Config{
			CandidateCount: v.GetInt("recommend.candidate_count"),
			Seed:           v.GetInt64("recommend.seed"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Favorites.Backend {
	case BackendSQLite:
	case BackendBadger:
		if c.Favorites.BadgerPath == "" {
			return invalid("favorites.badger_path", fmt.Errorf("required for the %s backend", BackendBadger))
		}
	default:
		return invalid("favorites.backend", fmt.Errorf("unknown backend %q", c.Favorites.Backend))
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	durations := map[string]time.Duration{
		"favorites.poll_interval":     c.Favorites.PollInterval,
		"workflow.analysis_duration":  c.Workflow.AnalysisDuration,
		"workflow.repropose_duration": c.Workflow.ReproposeDuration,
	}
	for key, d := range durations {
		if d <= 0 {
			return invalid(key, fmt.Errorf("must be a positive duration such as 5s, got %v", d))
		}
	}
	if c.Recommend.CandidateCount <= 0 {
		return invalid("recommend.candidate_count", fmt.Errorf("must be positive, got %d", c.Recommend.CandidateCount))
	}
	if c.Scale.WallWidthCm <= 0 || c.Scale.WallHeightCm <= 0 {
		return invalid("scale", fmt.Errorf("wall dimensions must be positive"))
	}
	return nil
}

func invalid(key string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, key, err)
}

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
