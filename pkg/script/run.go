package script

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
)

// Result is the outcome of one replayed step
type Result struct {
	Index   int      `json:"index"`
	Line    int      `json:"line,omitempty"`
	Kind    StepKind `json:"kind"`
	OK      bool     `json:"ok"`
	Message string   `json:"message,omitempty"`
	Err     error    `json:"-"`
}

// Report collects the results of a run
type Report struct {
	Results []Result `json:"results"`
	Failed  int      `json:"failed"`
}

// OK returns true if every step succeeded
func (r Report) OK() bool { return r.Failed == 0 }

// String renders one line per step, e.g. "3 add: ok"
func (r Report) String() string {
	var sb strings.Builder
	for _, res := range r.Results {
		status := "ok"
		if !res.OK {
			status = res.Message
		}
		if res.Line > 0 {
			fmt.Fprintf(&sb, "%d (line %d) %s: %s\n", res.Index+1, res.Line, res.Kind, status)
		} else {
			fmt.Fprintf(&sb, "%d %s: %s\n", res.Index+1, res.Kind, status)
		}
	}
	return sb.String()
}

// Run replays every step against sess. Failing steps are recorded and the
// run continues, matching how the form-driven editor keeps going after a
// rejected submission.
func Run(sess *editor.Session, sc *Script) Report {
	var rep Report
	for i, st := range sc.Steps {
		res := Apply(sess, st)
		res.Index = i
		if !res.OK {
			rep.Failed++
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

// Apply performs a single step
func Apply(sess *editor.Session, st Step) Result {
	kind, err := st.Kind()
	res := Result{Line: st.Line, Kind: kind}
	if err != nil {
		res.Err = err
		res.Message = err.Error()
		return res
	}

	switch kind {
	case StepRoot:
		sess.SetRootLabel(*st.Root)
		res.OK = sess.CreateRoot()
	case StepAdd:
		sess.SetChildLabel(*st.Add)
		if st.Parent != "" {
			sess.SelectParent(st.Parent)
		}
		res.OK = sess.CreateChild()
	case StepReset:
		sess.Reset()
		res.OK = true
	case StepSelect:
		res.OK = sess.Select(*st.Select)
	}

	if !res.OK {
		res.Err = sess.Err()
		res.Message = sess.Message()
	}
	return res
}

// FromSession records the current tree as a script that rebuilds it. Ids in
// the script match the ids a fresh session would generate.
func FromSession(sess *editor.Session) *Script {
	sc := &Script{}
	marker := sess.Tree().RootMarker()
	for _, n := range sess.Nodes() {
		if n.IsRoot() {
			sc.Steps = append(sc.Steps, RootStep(strings.TrimSuffix(n.Label, marker)))
			continue
		}
		sc.Steps = append(sc.Steps, AddStep(n.Label, n.Parent()))
	}
	return sc
}
