package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/tree_viewer/pkg/config"
	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/export"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
	"github.com/Dicklesworthstone/tree_viewer/pkg/ui"
)

// localConfigFile is picked up from the working directory when present
const localConfigFile = "tv.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tv [script]",
		Short: "Single-root tree editor and visualizer",
		Long: `tv builds a tree one node at a time: a single root, then children
under any existing node. The tree is drawn top to bottom and every node
can be inspected for its parent, children, siblings, level and subtree size.

Without a subcommand tv opens the terminal UI, optionally replaying an
action script (*.tv.yaml) first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		RunE: runTUI,
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/tv/config.yaml)")
	root.PersistentFlags().String("locale", "", "message language: es or en")
	root.PersistentFlags().String("log-level", "", "log level: DEBUG, INFO, WARN or ERROR")

	root.AddCommand(
		newRenderCmd(),
		newServeCmd(),
		newNewCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func initConfig(cmd *cobra.Command) error {
	// Defaults first so they apply without a config file
	config.SetDefaults()

	flags := cmd.Root().PersistentFlags()
	_ = viper.BindPFlag("locale", flags.Lookup("locale"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	cfgFile, _ := flags.GetString("config")
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case fileExists(localConfigFile):
		viper.SetConfigFile(localConfigFile)
	default:
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	// TV_SERVER_ADDR for server.addr
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// app bundles what every command needs
type app struct {
	cfg    *config.Config
	logger *logging.Logger
}

// loadApp validates the configuration and opens the logger. The TUI logs
// to a file so the terminal stays clean; other commands log to stderr.
func loadApp(logToFile bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dir := ""
	if logToFile {
		dir = cfg.LogDir()
	}
	logger, err := logging.NewLogger(dir, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// newSession builds a session in the configured locale. A non-empty
// locale, usually from a script header, takes precedence.
func (a *app) newSession(locale string) *editor.Session {
	if locale == "" {
		locale = a.cfg.Locale
	}
	opts := []editor.Option{
		editor.WithLocale(editor.ParseLocale(locale)),
		editor.WithLogger(a.logger),
	}
	if a.cfg.RootMarker != "" {
		opts = append(opts, editor.WithRootMarker(a.cfg.RootMarker))
	}
	return editor.New(opts...)
}

func (a *app) close() { _ = a.logger.Close() }

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return cmd.Help()
	}

	a, err := loadApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	theme, err := ui.LoadTheme(lipgloss.DefaultRenderer(), a.cfg.TUI.Theme)
	if err != nil {
		return err
	}
	formats, err := export.ParseFormats(a.cfg.Export.Formats)
	if err != nil {
		return err
	}

	var sc *script.Script
	scriptPath := ""
	if len(args) == 1 {
		scriptPath = args[0]
		if sc, err = script.Load(scriptPath); err != nil {
			return err
		}
	}

	sess := a.newSession(scriptLocale(sc))
	if sc != nil {
		if rep := script.Run(sess, sc); !rep.OK() {
			a.logger.Warn("initial script had failures", "path", scriptPath, "failed", rep.Failed)
		}
	}

	m := ui.NewModel(sess, ui.Options{
		Theme:         theme,
		Title:         a.cfg.Export.Title,
		Layout:        a.cfg.LayoutOptions(),
		Scripts:       config.DiscoverScripts(*a.cfg),
		ScriptPath:    scriptPath,
		ExportDir:     a.cfg.Export.OutputDir,
		ExportFormats: formats,
		Logger:        a.logger,
	})
	a.logger.Info("tui started", "session", sess.ID())
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
