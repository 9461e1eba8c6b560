// Package config loads tv settings through viper: built-in defaults, an
// optional YAML file and TV_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
)

// EnvPrefix is prepended to environment overrides (TV_SERVER_ADDR, ...)
const EnvPrefix = "TV"

// Config is the complete tv configuration
type Config struct {
	// Locale selects message language: "es" (default) or "en"
	Locale string `mapstructure:"locale"`
	// RootMarker overrides the annotation appended to root labels.
	// Empty means the locale's marker.
	RootMarker string        `mapstructure:"root_marker"`
	Layout     LayoutConfig  `mapstructure:"layout"`
	Logging    LoggingConfig `mapstructure:"logging"`
	Server     ServerConfig  `mapstructure:"server"`
	TUI        TUIConfig     `mapstructure:"tui"`
	Export     ExportConfig  `mapstructure:"export"`
	Scripts    ScriptsConfig `mapstructure:"scripts"`
}

// LayoutConfig mirrors layout.Options
type LayoutConfig struct {
	RankDir    string  `mapstructure:"rank_dir"`
	NodeWidth  float64 `mapstructure:"node_width"`
	NodeHeight float64 `mapstructure:"node_height"`
	RankSep    float64 `mapstructure:"rank_sep"`
	NodeSep    float64 `mapstructure:"node_sep"`
	Padding    float64 `mapstructure:"padding"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Dir receives tv.log. Empty means <config dir>/logs.
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type TUIConfig struct {
	// Theme is "default" or a path to a YAML theme file
	Theme string `mapstructure:"theme"`
}

type ExportConfig struct {
	Title     string   `mapstructure:"title"`
	Formats   []string `mapstructure:"formats"`
	OutputDir string   `mapstructure:"output_dir"`
}

// ScriptsConfig controls where the script picker looks for *.tv.yaml files
type ScriptsConfig struct {
	ScanPaths []string `mapstructure:"scan_paths"`
	MaxDepth  int      `mapstructure:"max_depth"`
}

// Default returns the built-in configuration
func Default() *Config {
	opts := layout.DefaultOptions()
	return &Config{
		Locale: "es",
		Layout: LayoutConfig{
			RankDir:    string(opts.RankDir),
			NodeWidth:  opts.NodeWidth,
			NodeHeight: opts.NodeHeight,
			RankSep:    opts.RankSep,
			NodeSep:    opts.NodeSep,
			Padding:    opts.Padding,
		},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: "127.0.0.1:8765"},
		TUI:     TUIConfig{Theme: "default"},
		Export: ExportConfig{
			Title:     "Tree Viewer",
			Formats:   []string{"svg", "html"},
			OutputDir: ".",
		},
		Scripts: ScriptsConfig{
			ScanPaths: []string{"."},
			MaxDepth:  3,
		},
	}
}

// SetDefaults registers every default with viper
func SetDefaults() {
	d := Default()

	viper.SetDefault("locale", d.Locale)
	viper.SetDefault("root_marker", d.RootMarker)

	viper.SetDefault("layout.rank_dir", d.Layout.RankDir)
	viper.SetDefault("layout.node_width", d.Layout.NodeWidth)
	viper.SetDefault("layout.node_height", d.Layout.NodeHeight)
	viper.SetDefault("layout.rank_sep", d.Layout.RankSep)
	viper.SetDefault("layout.node_sep", d.Layout.NodeSep)
	viper.SetDefault("layout.padding", d.Layout.Padding)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.dir", d.Logging.Dir)

	viper.SetDefault("server.addr", d.Server.Addr)

	viper.SetDefault("tui.theme", d.TUI.Theme)

	viper.SetDefault("export.title", d.Export.Title)
	viper.SetDefault("export.formats", d.Export.Formats)
	viper.SetDefault("export.output_dir", d.Export.OutputDir)

	viper.SetDefault("scripts.scan_paths", d.Scripts.ScanPaths)
	viper.SetDefault("scripts.max_depth", d.Scripts.MaxDepth)
}

// Load unmarshals viper's merged settings and validates them
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Get returns the current configuration, or the defaults if it is invalid
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LayoutOptions converts the layout section
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		RankDir:    layout.RankDir(strings.ToUpper(c.Layout.RankDir)),
		NodeWidth:  c.Layout.NodeWidth,
		NodeHeight: c.Layout.NodeHeight,
		RankSep:    c.Layout.RankSep,
		NodeSep:    c.Layout.NodeSep,
		Padding:    c.Layout.Padding,
	}
}

// LogDir resolves where tv.log goes
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return expandHome(c.Logging.Dir)
	}
	return filepath.Join(ConfigDir(), "logs")
}

// ConfigDir returns $XDG_CONFIG_HOME/tv or ~/.config/tv
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tv"
	}
	return filepath.Join(home, ".config", "tv")
}

// ConfigFile returns the default config file path
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidLocales lists the accepted locale values
func ValidLocales() []string {
	return []string{"es", "en"}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func isValid(list []string, v string) bool {
	return slices.Contains(list, strings.ToLower(v))
}
