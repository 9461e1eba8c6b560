package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/tree_viewer/pkg/export"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
)

// Operation identifies the background action behind a ResultMsg
type Operation int

const (
	OpCopyID Operation = iota
	OpLoadScript
	OpSaveScript
	OpExport
)

func (o Operation) String() string {
	switch o {
	case OpCopyID:
		return "copy"
	case OpLoadScript:
		return "load"
	case OpSaveScript:
		return "save"
	case OpExport:
		return "export"
	}
	return "unknown"
}

// ResultMsg is returned after a background operation completes
type ResultMsg struct {
	Operation Operation
	Success   bool
	Error     error
	Output    string
}

// ScriptLoadedMsg carries a parsed script back to the model, which replays
// it on the UI goroutine since the session is not safe for concurrent use.
type ScriptLoadedMsg struct {
	Path   string
	Script *script.Script
	Err    error
}

// clipboardWrite is swapped out in tests
var clipboardWrite = clipboard.WriteAll

func copyIDCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboardWrite(id); err != nil {
			return ResultMsg{Operation: OpCopyID, Error: fmt.Errorf("copy %s: %w", id, err)}
		}
		return ResultMsg{Operation: OpCopyID, Success: true, Output: id}
	}
}

func loadScriptCmd(path string) tea.Cmd {
	return func() tea.Msg {
		sc, err := script.Load(path)
		return ScriptLoadedMsg{Path: path, Script: sc, Err: err}
	}
}

// saveScriptCmd writes sc, which the caller snapshots from the session
func saveScriptCmd(sc *script.Script, path string) tea.Cmd {
	return func() tea.Msg {
		if err := sc.Save(path); err != nil {
			return ResultMsg{Operation: OpSaveScript, Error: err}
		}
		return ResultMsg{Operation: OpSaveScript, Success: true, Output: path}
	}
}

// exportCmd renders doc, which is already detached from the session
func exportCmd(doc *export.Document, dir string, formats []export.Format) tea.Cmd {
	return func() tea.Msg {
		paths, err := export.WriteAll(context.Background(), doc, dir, "tree", formats)
		if err != nil {
			return ResultMsg{Operation: OpExport, Error: err}
		}
		out := dir
		if len(paths) == 1 {
			out = paths[0]
		} else if abs, err := filepath.Abs(dir); err == nil {
			out = fmt.Sprintf("%d files in %s", len(paths), abs)
		}
		return ResultMsg{Operation: OpExport, Success: true, Output: out}
	}
}
