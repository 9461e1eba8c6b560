package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/tree_viewer/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or create the tv configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			Args:  cobra.NoArgs,
			RunE:  runConfigPath,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create a default config file",
			Long:  `Create a default config file at ~/.config/tv/config.yaml with all available options.`,
			Args:  cobra.NoArgs,
			RunE:  runConfigInit,
		},
	)
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(viper.AllSettings()); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" && fileExists(used) {
		fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintln(out, "  1. --config flag")
	fmt.Fprintf(out, "  2. ./%s (current directory)\n", localConfigFile)
	fmt.Fprintf(out, "  3. %s\n", config.ConfigFile())
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_SERVER_ADDR)\n", config.EnvPrefix, config.EnvPrefix)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	d := config.Default()
	content := fmt.Sprintf(`# tv configuration

# Message language: es or en
locale: %s

# Annotation appended to root labels; empty uses the locale's marker
root_marker: ""

layout:
  # TB (top to bottom) or LR (left to right)
  rank_dir: %s
  node_width: %g
  node_height: %g
  rank_sep: %g
  node_sep: %g
  padding: %g

logging:
  # DEBUG, INFO, WARN or ERROR
  level: %s
  # Directory for tv.log; empty means <config dir>/logs
  dir: ""

server:
  addr: %s

tui:
  # "default" or a path to a YAML theme file
  theme: %s

export:
  title: %s
  # svg, png, html, md, json or all
  formats: [%s]
  output_dir: %s

scripts:
  # Where the script picker looks for *.tv.yaml files
  scan_paths: [%s]
  max_depth: %d
`,
		d.Locale,
		d.Layout.RankDir, d.Layout.NodeWidth, d.Layout.NodeHeight, d.Layout.RankSep, d.Layout.NodeSep, d.Layout.Padding,
		d.Logging.Level,
		d.Server.Addr,
		d.TUI.Theme,
		d.Export.Title, strings.Join(d.Export.Formats, ", "), d.Export.OutputDir,
		quoteAll(d.Scripts.ScanPaths), d.Scripts.MaxDepth,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", path)
	return nil
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
