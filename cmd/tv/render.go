package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/tree_viewer/pkg/config"
	"github.com/Dicklesworthstone/tree_viewer/pkg/export"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
)

type renderOptions struct {
	formats   []string
	outDir    string
	title     string
	watch     bool
	strict    bool
	gitignore bool
	embed     string
	remove    bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render <script>",
		Short: "Replay a script and write static exports",
		Long: `Replay an action script against a fresh tree and write the result in
one or more formats: svg, png, html, md, json (or "all").

Files are named after the script, e.g. family.tv.yaml -> family.svg.`,
		Example: `  tv render family.tv.yaml
  tv render org.tv.yaml -f svg,png -o out/
  tv render org.tv.yaml --watch
  tv render org.tv.yaml -f svg --embed README.md
  tv render org.tv.yaml --embed README.md --remove`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("format") {
				opts.formats = a.cfg.Export.Formats
			}
			if !cmd.Flags().Changed("out") {
				opts.outDir = a.cfg.Export.OutputDir
			}

			out := cmd.OutOrStdout()
			if opts.remove {
				return removeEmbedded(out, args[0], opts.embed)
			}
			if !opts.watch {
				return renderScript(cmd.Context(), out, a, args[0], opts)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := renderScript(ctx, out, a, args[0], opts); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			unwatch, err := script.Watch(args[0], script.DefaultDebounce, func() {
				if err := renderScript(ctx, out, a, args[0], opts); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				}
			})
			if err != nil {
				return err
			}
			defer unwatch()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", args[0])
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "export formats (svg,png,html,md,json or all)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title (default: script title, then export.title)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render whenever the script changes")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any step is rejected")
	cmd.Flags().StringVar(&opts.embed, "embed", "", "also embed the Mermaid diagram into this markdown file")
	cmd.Flags().BoolVar(&opts.remove, "remove", false, "remove the diagram embedded by --embed instead of rendering")
	cmd.Flags().BoolVar(&opts.gitignore, "gitignore", false, "add the output directory to ./.gitignore")
	return cmd
}

// renderScript loads path, replays it on a new session and writes every
// requested format. Rejected steps are reported on out.
func renderScript(ctx context.Context, out io.Writer, a *app, path string, opts renderOptions) error {
	formats, err := export.ParseFormats(opts.formats)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return fmt.Errorf("no export formats selected")
	}

	sc, err := script.Load(path)
	if err != nil {
		return err
	}
	sess := a.newSession(scriptLocale(sc))
	rep := script.Run(sess, sc)
	if !rep.OK() {
		fmt.Fprintf(out, "%d of %d steps failed:\n%s", rep.Failed, len(rep.Results), rep)
		if opts.strict {
			return fmt.Errorf("%s: %d step(s) rejected", path, rep.Failed)
		}
	}

	title := opts.title
	if title == "" {
		title = sc.Title
	}
	if title == "" {
		title = a.cfg.Export.Title
	}
	doc, err := export.NewDocument(sess, title, a.cfg.LayoutOptions())
	if err != nil {
		return err
	}
	written, err := export.WriteAll(ctx, doc, opts.outDir, config.ScriptName(path), formats)
	if err != nil {
		return err
	}
	a.logger.Info("rendered script", "path", path, "nodes", doc.TreeSize(), "files", len(written))
	for _, p := range written {
		fmt.Fprintln(out, "wrote", p)
	}
	if opts.embed != "" {
		replaced, err := export.EmbedMermaid(opts.embed, config.ScriptName(path), doc)
		if err != nil {
			return err
		}
		if replaced {
			fmt.Fprintln(out, "updated diagram in", opts.embed)
		} else {
			fmt.Fprintln(out, "embedded diagram in", opts.embed)
		}
	}
	if opts.gitignore {
		if err := export.EnsureIgnored("", opts.outDir); err != nil {
			return fmt.Errorf("gitignore: %w", err)
		}
	}
	return nil
}

// removeEmbedded deletes the block named after the script from the
// markdown file given with --embed.
func removeEmbedded(out io.Writer, path, embed string) error {
	if embed == "" {
		return fmt.Errorf("--remove needs --embed <file>")
	}
	name := config.ScriptName(path)
	removed, err := export.RemoveMermaid(embed, name)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(out, "no %s diagram in %s\n", name, embed)
		return nil
	}
	fmt.Fprintln(out, "removed diagram from", embed)
	return nil
}

func scriptLocale(sc *script.Script) string {
	if sc == nil {
		return ""
	}
	return sc.Locale
}
