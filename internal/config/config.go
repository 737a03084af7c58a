// Package config handles application configuration loading and watching.
// Timer preferences are not here: they are user data kept in the store.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	// DBPath is the SQLite file holding all records. Empty means the
	// per-user default location.
	DBPath      string            `mapstructure:"db_path" yaml:"db_path"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" yaml:"maintenance"`
	Streak      StreakConfig      `mapstructure:"streak" yaml:"streak"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	StaticDir   string   `mapstructure:"static_dir" yaml:"static_dir"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// MaintenanceConfig sets the background intervals. The auto-save interval
// comes from the user's settings record instead.
type MaintenanceConfig struct {
	AchievementInterval time.Duration `mapstructure:"achievement_interval" yaml:"achievement_interval"`
	OptimizeInterval    time.Duration `mapstructure:"optimize_interval" yaml:"optimize_interval"`
}

type StreakConfig struct {
	OncePerDay bool `mapstructure:"once_per_day" yaml:"once_per_day"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:        ":3000",
			StaticDir:   "public",
			CORSOrigins: []string{},
		},
		Maintenance: MaintenanceConfig{
			AchievementInterval: 10 * time.Minute,
			OptimizeInterval:    time.Hour,
		},
		Streak: StreakConfig{OncePerDay: true},
	}
}

// DefaultPath returns ~/.config/pomodoro/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(dir, "pomodoro", "config.yaml")
}

// Loader reads a YAML file overlaid with POMODORO_* environment variables
// and can watch the file for edits.
type Loader struct {
	path string
	v    *viper.Viper

	mu       sync.Mutex
	fromFile bool
}

func NewLoader(path string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("POMODORO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("maintenance.achievement_interval", d.Maintenance.AchievementInterval)
	v.SetDefault("maintenance.optimize_interval", d.Maintenance.OptimizeInterval)
	v.SetDefault("streak.once_per_day", d.Streak.OncePerDay)

	return &Loader{path: path, v: v}
}

// Load reads the file if it exists. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fromFile = false
	if l.path != "" {
		err := l.v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		switch {
		case err == nil:
			l.fromFile = true
		case errors.As(err, &notFound), errors.As(err, &pathErr), errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading config %s: %w", l.path, err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	cfg := Default()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", l.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch calls fn with the re-read configuration whenever the loaded file
// changes. It does nothing when no file was loaded.
func (l *Loader) Watch(fn func(*Config, fsnotify.Event), onErr func(error)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.fromFile {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(cfg, e)
	})
	l.v.WatchConfig()
	return true
}

// Load is a convenience for NewLoader(path).Load().
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Validate checks enumerated values and intervals.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Maintenance.AchievementInterval <= 0 {
		errs = append(errs, fmt.Errorf("maintenance.achievement_interval must be positive"))
	}
	if c.Maintenance.OptimizeInterval <= 0 {
		errs = append(errs, fmt.Errorf("maintenance.optimize_interval must be positive"))
	}
	return errors.Join(errs...)
}
