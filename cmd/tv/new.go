package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
)

const outlineIndent = "  "

func newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a script from an indented outline",
		Long: `Ask for a title, a root label and an outline, then save the result as
an action script. Each outline line is a node under the root; indent a
line by two spaces to make it a child of the line above.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			var title, root, outline string
			path := "tree.tv.yaml"
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Title").Value(&title),
					huh.NewInput().Title("Root label").Value(&root).Validate(notBlank("root label")),
				),
				huh.NewGroup(
					huh.NewText().
						Title("Outline").
						Description("One node per line, two spaces per level").
						Value(&outline),
				),
				huh.NewGroup(
					huh.NewInput().Title("Save as").Value(&path).Validate(notBlank("path")),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			sc, err := outlineScript(a.newSession(""), title, root, outline)
			if err != nil {
				return err
			}
			if err := sc.Save(path); err != nil {
				return err
			}
			a.logger.Info("script created", "path", path, "steps", len(sc.Steps))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d steps)\n", path, len(sc.Steps))
			return nil
		},
	}
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// outlineScript builds the tree described by outline on sess and returns
// the equivalent script. sess should be empty.
func outlineScript(sess *editor.Session, title, root, outline string) (*script.Script, error) {
	sess.SetRootLabel(root)
	if !sess.CreateRoot() {
		return nil, fmt.Errorf("root: %s", sess.Message())
	}

	// parents[d] is the node that lines at depth d attach to
	parents := []string{sess.Nodes()[0].ID}
	for i, line := range strings.Split(outline, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		depth, label := outlineDepth(line)
		if depth >= len(parents) {
			return nil, fmt.Errorf("line %d: indented more than one level below its parent", i+1)
		}
		sess.SetChildLabel(label)
		sess.SelectParent(parents[depth])
		if !sess.CreateChild() {
			return nil, fmt.Errorf("line %d: %s", i+1, sess.Message())
		}
		nodes := sess.Nodes()
		parents = append(parents[:depth+1], nodes[len(nodes)-1].ID)
	}

	sc := script.FromSession(sess)
	sc.Title = strings.TrimSpace(title)
	sc.Locale = string(sess.Locale())
	return sc, nil
}

// outlineDepth counts leading indentation; a tab counts as one level
func outlineDepth(line string) (int, string) {
	depth := 0
	for {
		switch {
		case strings.HasPrefix(line, outlineIndent):
			line = line[len(outlineIndent):]
		case strings.HasPrefix(line, "\t"):
			line = line[1:]
		default:
			return depth, strings.TrimSpace(line)
		}
		depth++
	}
}
