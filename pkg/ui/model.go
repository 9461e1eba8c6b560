// Package ui is the terminal front end: a tree pane, an info pane and a
// form bar over one editor session.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/tree_viewer/pkg/config"
	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/export"
	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
)

const (
	// Tree pane share of the width, in percent
	treePaneRatio = 55

	// Rows used by the header, form bar and status line
	chromeHeight = 4

	defaultScriptPath = "tree.tv.yaml"
)

type mode int

const (
	modeNormal mode = iota
	modeRootForm
	modeChildForm
	modeParentPicker
	modeScriptPicker
	modeHelp
)

// Options configures the model
type Options struct {
	Theme         Theme
	Keys          KeyMap
	Title         string
	Layout        layout.Options
	Scripts       []config.ScriptRef
	ScriptPath    string // Target of "save as script"
	ExportDir     string
	ExportFormats []export.Format
	Logger        *logging.Logger
}

// Model is the bubbletea model
type Model struct {
	sess   *editor.Session
	tree   *TreePane
	info   viewport.Model
	md     *MarkdownRenderer
	input  textinput.Model
	keys   KeyMap
	theme  Theme
	opts   Options
	logger *logging.Logger

	mode         mode
	returnMode   mode // where the parent picker goes back to
	parentPicker ParentPickerModel
	scriptPicker ScriptPickerModel

	// notice reports background results; the session message has priority
	notice    string
	noticeErr bool

	width  int
	height int
}

// NewModel attaches a tree pane to sess and returns the model
func NewModel(sess *editor.Session, opts Options) Model {
	if opts.Theme.Renderer == nil {
		opts.Theme = DefaultTheme(lipgloss.DefaultRenderer())
	}
	if opts.Keys.Quit.Keys() == nil {
		opts.Keys = DefaultKeyMap()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}
	if opts.ScriptPath == "" {
		opts.ScriptPath = defaultScriptPath
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if len(opts.ExportFormats) == 0 {
		opts.ExportFormats = []export.Format{export.FormatSVG, export.FormatHTML}
	}

	c := sess.Catalog()
	pane := NewTreePane(opts.Theme)
	pane.SetEmptyText(fmt.Sprintf("%s: 0", c.TreeSize))
	pane.Rebuild(sess.Elements())
	sess.SetRenderer(editor.Renderers{sess.Renderer(), pane})

	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40

	m := Model{
		sess:   sess,
		tree:   pane,
		info:   viewport.New(40, 10),
		md:     NewMarkdownRendererWithTheme(40, opts.Theme),
		input:  ti,
		keys:   opts.Keys,
		theme:  opts.Theme,
		opts:   opts,
		logger: opts.Logger.WithComponent("ui"),
	}
	m.refreshInfo()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Session returns the underlying editor session
func (m Model) Session() *editor.Session { return m.sess }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case ResultMsg:
		m.handleResult(msg)
		return m, nil

	case ScriptChosenMsg:
		m.mode = modeNormal
		return m, loadScriptCmd(msg.Ref.Path)

	case ScriptLoadedMsg:
		m.replay(msg)
		return m, nil

	case pickerClosedMsg:
		m.mode = modeNormal
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeRootForm, modeChildForm:
			return m.updateForm(msg)
		case modeParentPicker:
			return m.updateParentPicker(msg)
		case modeScriptPicker:
			var cmd tea.Cmd
			m.scriptPicker, cmd = m.scriptPicker.Update(msg)
			return m, cmd
		case modeHelp:
			m.mode = modeNormal
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Root):
		m.openForm(modeRootForm, m.sess.RootLabel())
	case key.Matches(msg, k.Add):
		if m.sess.ParentID() == "" || !m.sess.Tree().Has(m.sess.ParentID()) {
			m.sess.SelectParent(m.tree.SelectedID())
		}
		m.openForm(modeChildForm, m.sess.ChildLabel())
	case key.Matches(msg, k.Parent):
		m.openParentPicker(modeNormal)
	case key.Matches(msg, k.Select):
		if id := m.tree.SelectedID(); id != "" {
			m.sess.Select(id)
		}
		m.refreshInfo()
	case key.Matches(msg, k.ClearSelect):
		m.sess.ClearSelection()
		m.refreshInfo()
	case key.Matches(msg, k.Up):
		m.tree.MoveUp()
	case key.Matches(msg, k.Down):
		m.tree.MoveDown()
	case key.Matches(msg, k.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, k.Bottom):
		m.tree.JumpToBottom()
	case key.Matches(msg, k.ToParent):
		m.tree.JumpToParent()
	case key.Matches(msg, k.ScrollInfo):
		if msg.String() == "J" {
			m.info.LineDown(1)
		} else {
			m.info.LineUp(1)
		}
	case key.Matches(msg, k.Copy):
		if id := m.tree.SelectedID(); id != "" {
			return m, copyIDCmd(id)
		}
	case key.Matches(msg, k.Reset):
		m.sess.Reset()
		m.notice = ""
		m.refreshInfo()
	case key.Matches(msg, k.Scripts):
		m.scriptPicker = NewScriptPicker(m.opts.Scripts, m.theme)
		m.scriptPicker.SetSize(m.width, m.height)
		m.mode = modeScriptPicker
	case key.Matches(msg, k.SaveScript):
		sc := script.FromSession(m.sess)
		sc.Title = m.opts.Title
		return m, saveScriptCmd(sc, m.opts.ScriptPath)
	case key.Matches(msg, k.Export):
		doc, err := export.NewDocument(m.sess, m.opts.Title, m.opts.Layout)
		if err != nil {
			m.setNotice(err.Error(), true)
			return m, nil
		}
		return m, exportCmd(doc, m.opts.ExportDir, m.opts.ExportFormats)
	case key.Matches(msg, k.Help):
		m.mode = modeHelp
	}
	return m, nil
}

func (m *Model) openForm(md mode, value string) {
	m.mode = md
	m.input.Reset()
	m.input.SetValue(value)
	m.input.CursorEnd()
	if md == modeRootForm {
		m.input.Placeholder = "root label"
	} else {
		m.input.Placeholder = "node label"
	}
	m.input.Focus()
}

func (m *Model) closeForm() {
	m.input.Blur()
	m.mode = modeNormal
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Keep what was typed; the session holds form state across opens
		m.storeFormValue()
		m.closeForm()
		return m, nil
	case "ctrl+p":
		if m.mode == modeChildForm {
			m.storeFormValue()
			m.openParentPicker(modeChildForm)
		}
		return m, nil
	case "enter":
		m.submitForm()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) storeFormValue() {
	if m.mode == modeRootForm {
		m.sess.SetRootLabel(m.input.Value())
	} else {
		m.sess.SetChildLabel(m.input.Value())
	}
}

// submitForm runs the create action. The form stays open on failure so
// the label can be corrected.
func (m *Model) submitForm() {
	m.storeFormValue()
	m.notice = ""

	var ok bool
	if m.mode == modeRootForm {
		ok = m.sess.CreateRoot()
	} else {
		ok = m.sess.CreateChild()
	}
	m.refreshInfo()
	if !ok {
		return
	}

	nodes := m.sess.Nodes()
	m.tree.SelectByID(nodes[len(nodes)-1].ID)
	m.closeForm()
}

func (m *Model) openParentPicker(back mode) {
	nodes := m.sess.Nodes()
	if len(nodes) == 0 {
		m.setNotice(m.sess.Catalog().MissingParent, true)
		if back != modeNormal {
			m.openForm(back, m.sess.ChildLabel())
		}
		return
	}
	m.parentPicker = NewParentPickerModel(nodes, m.sess.ParentID(), m.sess.Catalog().Parent, m.theme)
	m.parentPicker.SetSize(m.width, m.height)
	m.returnMode = back
	m.mode = modeParentPicker
}

func (m Model) updateParentPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.parentPicker.MoveDown()
		return m, nil
	case "k", "up":
		m.parentPicker.MoveUp()
		return m, nil
	case "enter":
		m.sess.SelectParent(m.parentPicker.SelectedID())
	case "esc", "q":
	default:
		return m, nil
	}

	if m.returnMode == modeChildForm {
		m.openForm(modeChildForm, m.sess.ChildLabel())
	} else {
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) replay(msg ScriptLoadedMsg) {
	if msg.Err != nil {
		m.logger.Warn("script load failed", "path", msg.Path, "error", msg.Err.Error())
		m.setNotice(msg.Err.Error(), true)
		return
	}
	m.sess.Reset()
	rep := script.Run(m.sess, msg.Script)
	m.logger.Info("script replayed", "path", msg.Path, "steps", len(rep.Results), "failed", rep.Failed)
	m.refreshInfo()
	m.tree.JumpToTop()

	if rep.OK() {
		m.setNotice(fmt.Sprintf("%s: %d steps", msg.Path, len(rep.Results)), false)
	} else {
		m.setNotice(fmt.Sprintf("%s: %d of %d steps failed", msg.Path, rep.Failed, len(rep.Results)), true)
	}
}

func (m *Model) handleResult(msg ResultMsg) {
	if !msg.Success {
		m.logger.Warn(msg.Operation.String()+" failed", "error", fmt.Sprint(msg.Error))
		m.setNotice(fmt.Sprint(msg.Error), true)
		return
	}
	switch msg.Operation {
	case OpCopyID:
		m.setNotice("copied "+msg.Output, false)
	case OpSaveScript:
		m.setNotice("saved "+msg.Output, false)
	case OpExport:
		m.setNotice("exported "+msg.Output, false)
	}
}

func (m *Model) setNotice(s string, isErr bool) {
	m.notice = s
	m.noticeErr = isErr
}

// refreshInfo redraws the info pane from the session selection
func (m *Model) refreshInfo() {
	c := m.sess.Catalog()
	info, ok := m.sess.Info()
	if !ok {
		m.info.SetContent(m.theme.Status.Render(fmt.Sprintf("%s: %s\n\nenter: select", c.Node, c.None)))
		return
	}
	out, err := m.md.Render(InfoMarkdown(info, c))
	if err != nil {
		out = InfoMarkdown(info, c)
	}
	m.info.SetContent(out)
	m.info.GotoTop()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	bodyHeight := max(height-chromeHeight-2, 3)
	treeWidth := width * treePaneRatio / 100
	infoWidth := width - treeWidth

	m.tree.SetSize(max(treeWidth-4, 10), bodyHeight)
	m.info.Width = max(infoWidth-4, 10)
	m.info.Height = bodyHeight
	m.md.SetWidth(m.info.Width)
	m.input.Width = max(width-30, 10)
	m.parentPicker.SetSize(width, height)
	m.scriptPicker.SetSize(width, height)
	m.refreshInfo()
}

func (m Model) View() string {
	switch m.mode {
	case modeHelp:
		return RenderHelp(m.keys, m.theme, m.width, m.height)
	case modeParentPicker:
		return m.parentPicker.View()
	case modeScriptPicker:
		return m.scriptPicker.View()
	}

	treeWidth := m.width * treePaneRatio / 100
	infoWidth := m.width - treeWidth
	if m.width == 0 {
		treeWidth, infoWidth = 44, 36
	}

	treeBox := m.theme.Border.Width(max(treeWidth-2, 10)).Render(m.tree.View())
	infoBox := m.theme.Border.Width(max(infoWidth-2, 10)).Render(m.info.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, treeBox, infoBox)

	return strings.Join([]string{m.headerView(), body, m.formView(), m.statusView()}, "\n")
}

func (m Model) headerView() string {
	c := m.sess.Catalog()
	title := m.opts.Title
	if title == "" {
		title = "tv"
	}
	parts := []string{
		m.theme.Title.Render(title),
		fmt.Sprintf("%s: %d", c.TreeSize, m.sess.TreeSize()),
	}
	if pid := m.sess.ParentID(); pid != "" {
		label := pid
		if n, ok := m.sess.Tree().Node(pid); ok {
			label = fmt.Sprintf("%s (%s)", n.Label, pid)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", c.Parent, label))
	}
	return strings.Join(parts, m.theme.Status.Render(" · "))
}

func (m Model) formView() string {
	switch m.mode {
	case modeRootForm:
		return m.theme.Title.Render("root> ") + m.input.View()
	case modeChildForm:
		parent := m.sess.ParentID()
		if parent == "" {
			parent = "-"
		}
		return m.theme.Title.Render(fmt.Sprintf("child of %s> ", parent)) + m.input.View() +
			m.theme.Status.Render("  ctrl+p: parent")
	}
	return m.theme.Status.Render("r: root  a: child  p: parent  enter: select  X: reset  ?: help")
}

func (m Model) statusView() string {
	if msg := m.sess.Message(); msg != "" {
		return m.theme.Error.Render(msg)
	}
	if m.notice != "" {
		if m.noticeErr {
			return m.theme.Error.Render(m.notice)
		}
		return m.theme.Status.Render(m.notice)
	}
	return ""
}
